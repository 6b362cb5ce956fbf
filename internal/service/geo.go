package service

import (
	"math"

	"kindred-match/internal/domain"
)

const earthRadiusKm = 6371.0

// neutralGeoScore se usa cuando falta la coordenada de cualquiera de los lados.
const neutralGeoScore = 50

// HaversineKm calcula la distancia de circulo maximo en kilometros.
func HaversineKm(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func distanceLabel(km float64) string {
	switch {
	case km < 1:
		return "less than 1 km away"
	case km < 5:
		return "less than 5 km away"
	case km < 10:
		return "less than 10 km away"
	case km < 25:
		return "less than 25 km away"
	case km < 50:
		return "less than 50 km away"
	case km < 100:
		return "less than 100 km away"
	default:
		return "more than 100 km away"
	}
}

func geoBonus(km float64) int {
	switch {
	case km < 5:
		return 100
	case km < 15:
		return 85
	case km < 30:
		return 70
	case km < 50:
		return 55
	case km < 100:
		return 40
	default:
		return 20
	}
}

// GeoScore calcula el bono de proximidad entre solicitante y entidad.
// Coordenadas ausentes en cualquier lado: bono neutral 50 y Known=false.
func GeoScore(requester, entity *domain.Coordinates) domain.GeoInfo {
	if requester == nil || entity == nil {
		return domain.GeoInfo{Score: neutralGeoScore, Label: "location unknown"}
	}
	km := HaversineKm(*requester, *entity)
	return domain.GeoInfo{
		Score:      geoBonus(km),
		Label:      distanceLabel(km),
		DistanceKm: km,
		Known:      true,
	}
}
