package render

import (
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
)

const selectionColor = "#1976d2"

func statusColor(s menu.Status) string {
	switch s {
	case menu.StatusReserved:
		return "#ffb300"
	case menu.StatusOccupied:
		return "#e53935"
	case menu.StatusPaymentPending:
		return "#8e24aa"
	case menu.StatusBlocked:
		return "#9e9e9e"
	default:
		return "#43a047"
	}
}

func zoneColor(tag models.ZoneTag) string {
	switch tag {
	case models.ZoneTerrace:
		return "#7cb342"
	case models.ZoneBar:
		return "#8d6e63"
	case models.ZoneVIP:
		return "#c0a000"
	case models.ZonePrivate:
		return "#5e35b1"
	case models.ZoneOutdoor:
		return "#00897b"
	default:
		return "#546e7a"
	}
}

func decorColor(t models.DecorType) string {
	switch t {
	case models.DecorWall:
		return "#455a64"
	case models.DecorDoor:
		return "#a1887f"
	case models.DecorPillar:
		return "#78909c"
	case models.DecorStage:
		return "#6d4c41"
	case models.DecorDanceFloor:
		return "#ce93d8"
	case models.DecorBarCounter:
		return "#795548"
	case models.DecorHostStand:
		return "#90a4ae"
	case models.DecorBathroom:
		return "#b3e5fc"
	case models.DecorKitchen:
		return "#ffe0b2"
	case models.DecorStairs:
		return "#bdbdbd"
	default:
		return "#cfd8dc"
	}
}
