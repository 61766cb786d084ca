package serper

import (
	"encoding/json"
	"fmt"

	"github.com/localrank/backend/internal/domain"
)

// searchResponse is the part of the places response the pipeline reads.
// Everything else in the body (searchParameters, credits) is ignored.
type searchResponse struct {
	Places []domain.Place `json:"places"`
}

// decodePlaces parses a response body. An absent or null places array
// decodes to an empty page.
func decodePlaces(body []byte) ([]domain.Place, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Places == nil {
		return []domain.Place{}, nil
	}
	return resp.Places, nil
}
