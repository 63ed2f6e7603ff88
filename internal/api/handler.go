package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/evfinder/chargefinder/backend-go/internal/models"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

func (r APIResponse) GetResponseType() string {
	return r.ResponseType
}

type ChargersResponse struct {
	APIResponse
	Chargers []models.Charger `json:"chargers"`
}

type ChargerResponse struct {
	APIResponse
	Charger models.Charger `json:"charger"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewChargersResponse(chargers []models.Charger) *ChargersResponse {
	if chargers == nil {
		chargers = []models.Charger{}
	}
	return &ChargersResponse{
		APIResponse: APIResponse{ResponseType: "chargers"},
		Chargers:    chargers,
	}
}

func NewChargerResponse(charger models.Charger) *ChargerResponse {
	return &ChargerResponse{
		APIResponse: APIResponse{ResponseType: "charger"},
		Charger:     charger,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// ParseCoordinates reads lat/lon query parameters. ok is false when neither
// is present; supplying only one of the two is an error, as are
// non-numeric or out-of-range values.
func ParseCoordinates(params map[string]string) (lat, lon float64, ok bool, err error) {
	latStr, hasLat := params["lat"]
	lonStr, hasLon := params["lon"]

	if !hasLat && !hasLon {
		return 0, 0, false, nil
	}
	if hasLat != hasLon {
		return 0, 0, false, MissingCoordinateError{}
	}

	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false, InvalidCoordinatesError{}
	}

	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, false, InvalidCoordinatesError{}
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false, InvalidCoordinatesError{}
	}

	return lat, lon, true, nil
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}

type MissingCoordinateError struct{}

func (e MissingCoordinateError) Error() string {
	return "Both lat and lon are required together"
}
