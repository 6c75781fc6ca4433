package service

import (
	"topoview/internal/canvas"
	"topoview/internal/domain"
)

// DefaultMenu is the context menu offered when no other provider is set
func DefaultMenu(e domain.Element) []canvas.MenuItem {
	switch e.(type) {
	case domain.ObjectVertex:
		return []canvas.MenuItem{
			{ID: "properties", Label: "Properties"},
			{ID: "connect", Label: "Connect to..."},
			{ID: "remove", Label: "Remove from view"},
		}
	case domain.CloudVertex:
		return []canvas.MenuItem{
			{ID: "rename", Label: "Rename"},
			{ID: "connect", Label: "Connect to..."},
			{ID: "remove", Label: "Remove from view"},
		}
	case domain.FrameVertex, domain.LabelVertex:
		return []canvas.MenuItem{
			{ID: "rename", Label: "Edit text"},
			{ID: "remove", Label: "Remove from view"},
		}
	}
	return nil
}
