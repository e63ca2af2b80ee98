package internal

import (
	"fmt"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	Create endpoint.Endpoint
	List   endpoint.Endpoint
}

// eventResponse is returned after an event has been created
type eventResponse struct {
	Message string        `json:"message"`
	Event   *models.Event `json:"event"`
}

// StatusCode implements the StatusCoder interface of the go-kit HTTP transport
func (r eventResponse) StatusCode() int {
	return http.StatusCreated
}

// eventListResponse is returned when listing events
type eventListResponse struct {
	Message string         `json:"message"`
	Events  []models.Event `json:"events"`
}

// StatusCode implements the StatusCoder interface of the go-kit HTTP transport
func (r eventListResponse) StatusCode() int {
	return http.StatusOK
}

// -- Events -----------------------------------------------------------------------------------------------------------

// MakeEventEndpoints creates the endpoints needed to use the event service
func MakeEventEndpoints(s EventService) EventEndpoints {
	return EventEndpoints{
		Create: MakeCreateEventEndpoint(s),
		List:   MakeListEventsEndpoint(s),
	}
}

// MakeCreateEventEndpoint returns an endpoint calling the Create method of the EventService
func MakeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		draft, ok := request.(*EventDraft)
		if !ok {
			return nil, fmt.Errorf("illegal event draft parameter")
		}
		ev, err := s.Create(ctx, draft)
		if err != nil {
			return nil, err
		}
		return eventResponse{msgCreated, ev}, nil
	}
}

// MakeListEventsEndpoint returns an endpoint calling the List method of the EventService
func MakeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		events, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return eventListResponse{msgFetched, events}, nil
	}
}
