package arena

import (
	"errors"
	"fmt"

	"ordnance/internal/geom"
	"ordnance/internal/weapon"
)

const (
	// fxHistory bounds the recently played effects kept for inspection.
	fxHistory = 256
	// cosmeticLifetime is how long a spawned cosmetic lingers, in frames.
	cosmeticLifetime = weapon.FramesPerSecond
)

// Cosmetic is a presentation-only object spawned by a weapon.
type Cosmetic struct {
	ID       weapon.ObjectID
	Name     string
	Position geom.Coord3D
	Expires  uint32
}

// PlayFX implements weapon.Presenter by recording the request.
func (a *Arena) PlayFX(req weapon.FXRequest) error {
	if req.Name == "" {
		return errors.New("fx without a name")
	}
	if len(a.fx) == fxHistory {
		copy(a.fx, a.fx[1:])
		a.fx = a.fx[:fxHistory-1]
	}
	a.fx = append(a.fx, req)
	a.cfg.Metrics.Add(metricFX, 1)
	return nil
}

// SpawnCosmetic implements weapon.Presenter.
func (a *Arena) SpawnCosmetic(name string, at geom.Coord3D) error {
	if name == "" {
		return errors.New("cosmetic without a name")
	}
	a.cosmetics = append(a.cosmetics, Cosmetic{
		ID:       a.nextID("cosmetic"),
		Name:     name,
		Position: at,
		Expires:  a.frame + cosmeticLifetime,
	})
	return nil
}

// PositionBarrel implements weapon.Presenter by remembering the barrel each
// slot last fired from.
func (a *Arena) PositionBarrel(owner weapon.ObjectID, slot, barrel int) error {
	u, ok := a.units[owner]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownUnit, owner)
	}
	u.barrels[slot] = barrel
	return nil
}

// Barrel returns the barrel slot last fired from on u.
func (u *Unit) Barrel(slot int) int {
	return u.barrels[slot]
}

// RecentFX returns the most recently played effects, oldest first.
func (a *Arena) RecentFX() []weapon.FXRequest {
	return append([]weapon.FXRequest(nil), a.fx...)
}

// Cosmetics returns the cosmetics still on screen.
func (a *Arena) Cosmetics() []Cosmetic {
	return append([]Cosmetic(nil), a.cosmetics...)
}

func (a *Arena) expireCosmetics() {
	kept := a.cosmetics[:0]
	for _, c := range a.cosmetics {
		if c.Expires > a.frame {
			kept = append(kept, c)
		}
	}
	a.cosmetics = kept
}
