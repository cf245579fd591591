package yandex

import (
	"errors"

	"github.com/foodcart/backend/internal/domain"
)

var errMissingCollection = errors.New("response has no featureMember list")

// geocodeResponse mirrors the parts of the geocoder JSON we read
type geocodeResponse struct {
	Response *struct {
		GeoObjectCollection *struct {
			FeatureMember *[]featureMember `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

type featureMember struct {
	GeoObject struct {
		Name  string `json:"name,omitempty"`
		Point struct {
			Pos string `json:"pos"`
		} `json:"Point"`
	} `json:"GeoObject"`
}

// toPlacemarks keeps the geocoder's relevance order.
// Only an explicit empty featureMember list means "no match".
func toPlacemarks(resp *geocodeResponse) ([]domain.Placemark, error) {
	if resp.Response == nil || resp.Response.GeoObjectCollection == nil ||
		resp.Response.GeoObjectCollection.FeatureMember == nil {
		return nil, errMissingCollection
	}
	members := *resp.Response.GeoObjectCollection.FeatureMember
	placemarks := make([]domain.Placemark, 0, len(members))
	for _, m := range members {
		placemarks = append(placemarks, domain.Placemark{Pos: m.GeoObject.Point.Pos})
	}
	return placemarks, nil
}
