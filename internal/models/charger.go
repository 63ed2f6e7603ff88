package models

type ChargerStatus string

const (
	StatusAvailable ChargerStatus = "AVAILABLE"
	StatusOccupied  ChargerStatus = "OCCUPIED"
	StatusOffline   ChargerStatus = "OFFLINE"
	StatusUnknown   ChargerStatus = "UNKNOWN"
)

// Charger is a persisted charging station record. The (Latitude, Longitude)
// pair acts as the natural external key: the store never holds two chargers
// with an identical pair.
type Charger struct {
	ID          string        `json:"id" dynamodbav:"id"`
	Name        string        `json:"name" dynamodbav:"name"`
	Latitude    float64       `json:"latitude" dynamodbav:"latitude"`
	Longitude   float64       `json:"longitude" dynamodbav:"longitude"`
	Address     string        `json:"address" dynamodbav:"address"`
	Country     string        `json:"country" dynamodbav:"country"`
	PlugType    string        `json:"plugType" dynamodbav:"plugType"`
	Status      ChargerStatus `json:"status" dynamodbav:"status"`
	PricePerKwh float64       `json:"pricePerKwh" dynamodbav:"pricePerKwh"`
	Enabled     bool          `json:"enabled" dynamodbav:"enabled"`
	// Distance from the query point in km, populated on proximity results only.
	Distance float64 `json:"distance,omitempty" dynamodbav:"-"`
}
