package oracle

import "fmt"

const identifyPrompt = `Identify this dish. Return ONLY a JSON object: { "dishName": "...", "description": "..." }`

func searchPrompt(dishName string, lat, lng float64) string {
	return fmt.Sprintf("List 5 restaurants near %v, %v serving %s. Return JSON array: [{name, price, rating}].", lat, lng, dishName)
}

func syncPrompt(url string) string {
	return fmt.Sprintf("Analyze restaurant at: %s. Extract 5 menu items (name, description, price in AED) and coords (lat, lng). "+
		`JSON only: {"menu": [{"name": "", "description": "", "price": ""}], "location": {"lat": 0, "lng": 0}}`, url)
}

func intentPrompt(message string) string {
	return fmt.Sprintf("Is this a purchase intent/order? %q. Return true/false.", message)
}
