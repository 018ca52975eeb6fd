package weapon

// WeaponSet is the loadout of one owner, indexed by slot. Owners flagged for
// shared reload timing see every slot's cooldown mirrored onto its siblings.
type WeaponSet struct {
	store *Store
	owner ObjectID
	slots []*Weapon
}

// NewWeaponSet mounts templates into consecutive slots of owner. Nil entries
// leave the slot empty.
func (s *Store) NewWeaponSet(owner ObjectID, templates ...*Template) *WeaponSet {
	if s == nil {
		return nil
	}
	set := &WeaponSet{store: s, owner: owner}
	set.mount(templates)
	return set
}

func (ws *WeaponSet) mount(templates []*Template) {
	ws.slots = make([]*Weapon, len(templates))
	for slot, t := range templates {
		if t == nil {
			continue
		}
		w := ws.store.NewWeapon(t, ws.owner, slot)
		w.set = ws
		ws.slots[slot] = w
	}
}

// Owner returns the id of the entity carrying the set.
func (ws *WeaponSet) Owner() ObjectID {
	if ws == nil {
		return InvalidID
	}
	return ws.owner
}

// Len returns the number of slots.
func (ws *WeaponSet) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.slots)
}

// Slot returns the weapon mounted in slot, or nil.
func (ws *WeaponSet) Slot(slot int) *Weapon {
	if ws == nil || slot < 0 || slot >= len(ws.slots) {
		return nil
	}
	return ws.slots[slot]
}

// Weapons returns the mounted weapons in slot order, skipping empty slots.
func (ws *WeaponSet) Weapons() []*Weapon {
	if ws == nil {
		return nil
	}
	out := make([]*Weapon, 0, len(ws.slots))
	for _, w := range ws.slots {
		if w != nil {
			out = append(out, w)
		}
	}
	return out
}

// Rebuild replaces the loadout. A slot that keeps the same template name
// keeps its cooldown progress and ammo.
func (ws *WeaponSet) Rebuild(templates ...*Template) {
	if ws == nil {
		return
	}
	previous := ws.slots
	ws.mount(templates)
	for slot, w := range ws.slots {
		if w == nil || slot >= len(previous) || previous[slot] == nil {
			continue
		}
		old := previous[slot]
		if old.template.Name != w.template.Name {
			continue
		}
		w.TransferReloadStateFrom(old)
		w.ammo = old.ammo
	}
}

// BestReady returns the first ready weapon that can target and reach victim.
func (ws *WeaponSet) BestReady(victim ObjectID) *Weapon {
	for _, w := range ws.Weapons() {
		if w.Status() != StatusReadyToFire {
			continue
		}
		if w.CanTarget(victim) && w.IsWithinRange(victim) {
			return w
		}
	}
	return nil
}

// OnBonusChanged forwards a bonus change to every slot.
func (ws *WeaponSet) OnBonusChanged() {
	for _, w := range ws.Weapons() {
		w.OnBonusChanged()
	}
}

// ReloadIdle gives every slot a chance to reload while idle.
func (ws *WeaponSet) ReloadIdle() int {
	reloaded := 0
	for _, w := range ws.Weapons() {
		if w.ReloadIfIdle() {
			reloaded++
		}
	}
	return reloaded
}

// mirror copies from's timers and status onto every sibling. Reloads also
// refill sibling clips.
func (ws *WeaponSet) mirror(from *Weapon, refill bool) {
	for _, w := range ws.slots {
		if w == nil || w == from {
			continue
		}
		w.nextFire = from.nextFire
		w.lastReloadStarted = from.lastReloadStarted
		w.status = from.status
		if refill {
			w.ammo = clipAmmo(w.template)
			w.rebuildScatterQueue()
		}
	}
}
