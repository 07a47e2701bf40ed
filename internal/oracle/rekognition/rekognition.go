// Package rekognition identifies dishes with AWS Rekognition image labels.
// It gives coarser names than a multimodal model but needs no prompt.
package rekognition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/vbonduro/dishout/internal/oracle"
)

// DetectLabelsAPI is the part of the Rekognition client used here.
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// genericLabels name the category rather than the dish.
var genericLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plate": true, "lunch": true,
	"dinner": true, "breakfast": true, "cuisine": true, "platter": true,
	"tableware": true, "produce": true, "bowl": true,
}

type Identifier struct {
	client DetectLabelsAPI
}

func New(client DetectLabelsAPI) *Identifier {
	return &Identifier{client: client}
}

// NewFromRegion builds an Identifier from the default AWS credential chain.
func NewFromRegion(ctx context.Context, region string) (*Identifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return New(rekognition.NewFromConfig(cfg)), nil
}

func (i *Identifier) Identify(ctx context.Context, image []byte, _ string) (*oracle.Dish, error) {
	out, err := i.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(10),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect labels: %w", err)
	}

	var specific, all []string
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" {
			continue
		}
		all = append(all, name)
		if !genericLabels[strings.ToLower(name)] {
			specific = append(specific, name)
		}
	}
	if len(specific) == 0 {
		return nil, errors.New("no dish label detected")
	}

	return &oracle.Dish{
		DishName:    specific[0],
		Description: "Detected: " + strings.Join(all, ", "),
	}, nil
}
