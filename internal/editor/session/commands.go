package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"venue-editor/internal/editor/geometry"
	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"

	"github.com/go-playground/validator/v10"
)

// ============================================================
// Commands
// ============================================================

// Command — сообщение {type, payload} от клиента.
type Command struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Result — итог команды. Applied=false означает невыполненное предусловие.
type Result struct {
	Applied bool   `json:"applied"`
	ID      string `json:"id,omitempty"`
}

var ErrUnknownCommand = errors.New("unknown command")

var validate = validator.New()

type alignPayload struct {
	Mode geometry.AlignMode `json:"mode" validate:"required,oneof=left center right top middle bottom"`
}

type distributePayload struct {
	Axis geometry.Axis `json:"axis" validate:"required,oneof=horizontal vertical"`
}

type groupPayload struct {
	GroupID string `json:"group_id"`
}

type togglePayload struct {
	On bool `json:"on"`
}

type gridPayload struct {
	Size float64 `json:"size" validate:"gt=0,lte=500"`
}

type viewSizePayload struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

type unitPayload struct {
	ID    string    `json:"id" validate:"required"`
	Patch UnitPatch `json:"patch"`
}

type zonePayload struct {
	ID    string    `json:"id" validate:"required"`
	Patch ZonePatch `json:"patch"`
}

type decorPayload struct {
	ID    string     `json:"id" validate:"required"`
	Patch DecorPatch `json:"patch"`
}

type idPayload struct {
	ID string `json:"id" validate:"required"`
}

type actionPayload struct {
	Key menu.ActionKey `json:"key" validate:"required"`
}

type menuModePayload struct {
	Mode menu.Mode `json:"mode" validate:"required,oneof=radial card"`
}

// UnitPatch — правка панели свойств; nil-поля не меняются.
type UnitPatch struct {
	Name        *string         `json:"name,omitempty"`
	X           *float64        `json:"x,omitempty"`
	Y           *float64        `json:"y,omitempty"`
	Width       *float64        `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height      *float64        `json:"height,omitempty" validate:"omitempty,gte=0"`
	Rotation    *float64        `json:"rotation,omitempty"`
	Shape       *models.Shape   `json:"shape,omitempty" validate:"omitempty,oneof=round square rectangle bar-counter counter banquet"`
	MinCovers   *int            `json:"min_covers,omitempty" validate:"omitempty,gte=0"`
	MaxCovers   *int            `json:"max_covers,omitempty" validate:"omitempty,gte=0"`
	Zone        *models.ZoneTag `json:"zone,omitempty" validate:"omitempty,oneof=main terrace bar vip private outdoor"`
	Blocked     *bool           `json:"blocked,omitempty"`
	BlockReason *string         `json:"block_reason,omitempty"`
}

func (p UnitPatch) apply(u *models.SeatingUnit) {
	set(&u.Name, p.Name)
	set(&u.X, p.X)
	set(&u.Y, p.Y)
	set(&u.Width, p.Width)
	set(&u.Height, p.Height)
	set(&u.Rotation, p.Rotation)
	set(&u.Shape, p.Shape)
	set(&u.MinCovers, p.MinCovers)
	set(&u.MaxCovers, p.MaxCovers)
	set(&u.Zone, p.Zone)
	set(&u.Blocked, p.Blocked)
	set(&u.BlockReason, p.BlockReason)
}

type ZonePatch struct {
	Label    *string         `json:"label,omitempty"`
	X        *float64        `json:"x,omitempty"`
	Y        *float64        `json:"y,omitempty"`
	Width    *float64        `json:"width,omitempty"`
	Height   *float64        `json:"height,omitempty"`
	Category *models.ZoneTag `json:"category,omitempty" validate:"omitempty,oneof=main terrace bar vip private outdoor"`
	Color    *string         `json:"color,omitempty" validate:"omitempty,hexcolor,len=4|len=7"`
}

func (p ZonePatch) apply(z *models.ZoneRegion) {
	set(&z.Label, p.Label)
	set(&z.X, p.X)
	set(&z.Y, p.Y)
	set(&z.Width, p.Width)
	set(&z.Height, p.Height)
	set(&z.Category, p.Category)
	set(&z.Color, p.Color)
}

type DecorPatch struct {
	Type     *models.DecorType `json:"type,omitempty" validate:"omitempty,oneof=wall door pillar stage dance-floor bar-counter host-stand bathroom kitchen stairs"`
	X        *float64          `json:"x,omitempty"`
	Y        *float64          `json:"y,omitempty"`
	Width    *float64          `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height   *float64          `json:"height,omitempty" validate:"omitempty,gte=0"`
	Rotation *float64          `json:"rotation,omitempty"`
	Label    *string           `json:"label,omitempty"`
}

func (p DecorPatch) apply(d *models.DecorElement) {
	set(&d.Type, p.Type)
	set(&d.X, p.X)
	set(&d.Y, p.Y)
	set(&d.Width, p.Width)
	set(&d.Height, p.Height)
	set(&d.Rotation, p.Rotation)
	set(&d.Label, p.Label)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return v, fmt.Errorf("invalid payload: %w", err)
		}
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("invalid payload: %w", err)
	}
	return v, nil
}

// Execute выполняет команду редактора.
func (s *Session) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := validate.Struct(cmd); err != nil {
		return Result{}, fmt.Errorf("invalid command: %w", err)
	}

	// команды, которым не нужна блокировка сессии целиком
	switch cmd.Type {
	case "save":
		return Result{Applied: true}, s.Save(ctx)
	case "load-template":
		p, err := decode[idPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: true}, s.LoadTemplate(p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(ctx, cmd)
}

func (s *Session) executeLocked(ctx context.Context, cmd Command) (Result, error) {
	e := s.engine

	switch cmd.Type {
	case "undo":
		s.menu.Close()
		return Result{Applied: e.Undo()}, nil
	case "redo":
		s.menu.Close()
		return Result{Applied: e.Redo()}, nil

	case "align":
		p, err := decode[alignPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: e.Align(p.Mode)}, nil
	case "distribute":
		p, err := decode[distributePayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: e.Distribute(p.Axis)}, nil

	case "combine":
		id, ok := e.Combine()
		return Result{Applied: ok, ID: id}, nil
	case "uncombine":
		p, err := decode[groupPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: e.Uncombine(p.GroupID)}, nil
	case "delete":
		return Result{Applied: e.DeleteSelection()}, nil

	case "add-unit":
		u, err := decode[models.SeatingUnit](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: true, ID: e.AddUnit(u)}, nil
	case "add-zone":
		z, err := decode[models.ZoneRegion](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: true, ID: e.AddZone(z)}, nil
	case "add-decor":
		d, err := decode[models.DecorElement](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: true, ID: e.AddDecor(d)}, nil

	case "update-unit":
		p, err := decode[unitPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: e.UpdateUnit(p.ID, p.Patch.apply), ID: p.ID}, nil
	case "update-zone":
		p, err := decode[zonePayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: e.UpdateZone(p.ID, p.Patch.apply), ID: p.ID}, nil
	case "update-decor":
		p, err := decode[decorPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: e.UpdateDecor(p.ID, p.Patch.apply), ID: p.ID}, nil

	case "set-edit-mode":
		p, err := decode[togglePayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		s.menu.Close()
		e.SetEditMode(p.On)
		return Result{Applied: true}, nil
	case "set-snap":
		p, err := decode[togglePayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		e.SetSnap(p.On)
		return Result{Applied: true}, nil
	case "set-grid":
		p, err := decode[gridPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		e.SetGridSize(p.Size)
		return Result{Applied: true}, nil

	case "fit":
		e.FitToContent()
		return Result{Applied: true}, nil
	case "reset-view":
		s.viewport.Reset()
		return Result{Applied: true}, nil
	case "resize-view":
		p, err := decode[viewSizePayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		s.viewport.SetSize(p.Width, p.Height)
		return Result{Applied: true}, nil

	case "open-menu":
		p, err := decode[idPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		return Result{Applied: s.openMenuLocked(p.ID), ID: p.ID}, nil
	case "close-menu":
		applied := s.menu.IsOpen()
		s.menu.Close()
		return Result{Applied: applied}, nil
	case "choose-action":
		p, err := decode[actionPayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		entity := s.menu.EntityID()
		if err := s.menu.Choose(ctx, p.Key); err != nil {
			return Result{}, err
		}
		return Result{Applied: true, ID: entity}, nil
	case "set-menu-mode":
		p, err := decode[menuModePayload](cmd.Payload)
		if err != nil {
			return Result{}, err
		}
		s.menu.SetMode(p.Mode)
		return Result{Applied: true}, nil
	}

	return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type)
}
