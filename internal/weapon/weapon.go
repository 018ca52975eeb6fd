package weapon

import (
	"context"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	loggingweapons "ordnance/logging/weapons"
)

// Weapon is the runtime state of one template mounted in one slot of one
// owner. Time-bounded statuses are recomputed from frame stamps on every read;
// the rest stick until the next transition.
type Weapon struct {
	store    *Store
	template *Template
	owner    ObjectID
	slot     int
	set      *WeaponSet

	status Status
	ammo   int

	nextFire          uint32
	preAttackFinished uint32
	lastReloadStarted uint32
	lastFire          uint32
	suspendFXUntil    uint32
	nextPreAttackFX   uint32
	fired             bool

	barrel        int
	barrelShots   int
	scatterQueue  []int
	scatterOrigin geom.Coord3D

	beam ObjectID

	aimVictim  ObjectID
	aimOffset  geom.Coord3D
	aimExpires uint32

	leechActive      bool
	attackVictim     ObjectID
	consecutiveShots int
}

// NewWeapon mounts t in slot of owner. The weapon starts loaded and ready.
func (s *Store) NewWeapon(t *Template, owner ObjectID, slot int) *Weapon {
	if s == nil || t == nil {
		return nil
	}
	w := &Weapon{
		store:    s,
		template: t,
		owner:    owner,
		slot:     slot,
		status:   StatusReadyToFire,
	}
	w.ammo = clipAmmo(t)
	w.suspendFXUntil = s.Frame() + t.SuspendFXDelay
	w.rebuildScatterQueue()
	return w
}

func clipAmmo(t *Template) int {
	if t.ClipSize > 0 {
		return t.ClipSize
	}
	return UnlimitedAmmo
}

// Template returns the template w delegates to.
func (w *Weapon) Template() *Template {
	if w == nil {
		return nil
	}
	return w.template
}

// Slot returns the slot w is mounted in.
func (w *Weapon) Slot() int {
	if w == nil {
		return 0
	}
	return w.slot
}

// Owner returns the id of the entity carrying w.
func (w *Weapon) Owner() ObjectID {
	if w == nil {
		return InvalidID
	}
	return w.owner
}

// Ammo returns the rounds left in the clip.
func (w *Weapon) Ammo() int {
	if w == nil {
		return 0
	}
	return w.ammo
}

// Barrel returns the barrel the next shot leaves from.
func (w *Weapon) Barrel() int {
	if w == nil {
		return 0
	}
	return w.barrel
}

// NextFireFrame returns the frame the weapon may fire again.
func (w *Weapon) NextFireFrame() uint32 {
	if w == nil {
		return 0
	}
	return w.nextFire
}

// BeamID returns the beam entity this weapon is driving, if any.
func (w *Weapon) BeamID() ObjectID {
	if w == nil {
		return InvalidID
	}
	return w.beam
}

// Status returns the current status.
func (w *Weapon) Status() Status {
	if w == nil {
		return StatusOutOfAmmo
	}
	now := w.store.Frame()
	if now < w.preAttackFinished {
		return StatusPreAttack
	}
	if now >= w.nextFire {
		if w.ammo > 0 {
			w.status = StatusReadyToFire
		} else {
			w.status = StatusOutOfAmmo
		}
	}
	return w.status
}

// PercentReady reports progress toward the next shot in [0, 1].
func (w *Weapon) PercentReady() float64 {
	switch w.Status() {
	case StatusReadyToFire:
		return 1
	case StatusBetweenFiringShots, StatusReloadingClip:
		now := w.store.Frame()
		if now >= w.nextFire {
			return 1
		}
		total := w.nextFire - w.lastReloadStarted
		if total == 0 {
			return 1
		}
		left := w.nextFire - now
		return 1 - float64(left)/float64(total)
	default:
		return 0
	}
}

// ContinuousFireLevel returns 0 when idle, 1 once ContinuousFireOne
// consecutive shots hit one victim and 2 past ContinuousFireTwo.
func (w *Weapon) ContinuousFireLevel() int {
	if w == nil || w.consecutiveShots == 0 {
		return 0
	}
	t := w.template
	if w.coasted(w.store.Frame()) {
		return 0
	}
	switch {
	case t.ContinuousFireTwo > 0 && w.consecutiveShots >= t.ContinuousFireTwo:
		return 2
	case t.ContinuousFireOne > 0 && w.consecutiveShots >= t.ContinuousFireOne:
		return 1
	default:
		return 0
	}
}

// CanTarget reports whether the template's anti mask allows victim.
func (w *Weapon) CanTarget(victim ObjectID) bool {
	if w == nil {
		return false
	}
	entity, ok := w.store.lookup(victim)
	if !ok {
		return false
	}
	return w.template.CanTarget(entity)
}

// IsWithinRange reports whether victim is in range of the owner under the
// owner's current bonus, including pitch and height limits.
func (w *Weapon) IsWithinRange(victim ObjectID) bool {
	if w == nil {
		return false
	}
	source, ok := w.store.lookup(w.owner)
	if !ok {
		return false
	}
	target, ok := w.store.lookup(victim)
	if !ok {
		return false
	}
	t := w.template
	b := w.store.ComputeBonus(t, source, w)
	return t.IsWithinRangeOfObject(source, target, b) &&
		t.IsWithinTargetPitch(source, target) &&
		t.IsWithinTargetHeight(source, target)
}

// FireAtObject fires at victim if the weapon is ready and in range.
func (w *Weapon) FireAtObject(victim ObjectID) FireResult {
	return w.fire(FireRequest{Victim: victim})
}

// FireAtPosition fires at a ground point if the weapon is ready and in range.
func (w *Weapon) FireAtPosition(target geom.Coord3D) FireResult {
	return w.fire(FireRequest{VictimPos: &target})
}

// FireOnSpot fires from an explicit launch position instead of the owner's.
func (w *Weapon) FireOnSpot(from, target geom.Coord3D) FireResult {
	return w.fire(FireRequest{SourcePos: &from, VictimPos: &target})
}

// ForceFireAtObject fires at victim regardless of range.
func (w *Weapon) ForceFireAtObject(victim ObjectID) FireResult {
	return w.fire(FireRequest{Victim: victim, IgnoreRange: true})
}

// ForceFireAtPosition fires at a point regardless of range.
func (w *Weapon) ForceFireAtPosition(target geom.Coord3D) FireResult {
	return w.fire(FireRequest{VictimPos: &target, IgnoreRange: true})
}

func (w *Weapon) fire(req FireRequest) FireResult {
	if w == nil {
		return FireResult{}
	}
	if w.Status() != StatusReadyToFire {
		return FireResult{}
	}
	s := w.store
	t := w.template
	source, ok := s.lookup(w.owner)
	if !ok {
		s.invalidFire(t, w.owner, "owner not found")
		return FireResult{}
	}

	b := s.ComputeBonus(t, source, w)
	req.Source = w.owner
	req.Slot = w.slot
	req.Barrel = w.barrel
	req.Bonus = b
	req.Weapon = w
	result := t.Fire(s, req)
	if !result.Fired {
		return result
	}

	now := s.Frame()
	w.trackAttack(req.Victim, now)
	w.lastFire = now
	w.fired = true
	if t.LeechRangeWeapon {
		w.leechActive = true
	}
	w.advanceBarrel(source)

	if t.HasClip() {
		w.ammo--
	}
	if w.ammo <= 0 {
		w.ammo = 0
		if t.Reload == ReloadAuto {
			w.reloadWith(b, false)
			return result
		}
		w.status = StatusOutOfAmmo
		w.nextFire = NeverFrame
		w.mirror(false)
		return result
	}

	delay := t.DelayBetweenShots(b, s.randFrames)
	delay = movingDelay(t, source, delay)
	w.status = StatusBetweenFiringShots
	w.lastReloadStarted = now
	w.nextFire = now + delay
	w.mirror(false)
	return result
}

func movingDelay(t *Template, source Entity, delay uint32) uint32 {
	if t.MovingDelayScalar <= 0 || source.Speed <= 0 || source.MaxSpeed <= 0 {
		return delay
	}
	ratio := geom.Clamp(source.Speed/source.MaxSpeed, 0, 1)
	scalar := 1 + (t.MovingDelayScalar-1)*ratio
	return uint32(float64(delay) * scalar)
}

func (w *Weapon) trackAttack(victim ObjectID, now uint32) {
	if victim == InvalidID || victim != w.attackVictim || w.coasted(now) {
		w.attackVictim = victim
		w.consecutiveShots = 0
	}
	w.consecutiveShots++
}

// coasted reports whether the gap since the last shot exceeds the longest
// inter-shot delay plus the continuous-fire coast window. A pending cooldown
// longer than that delay (a reload or a slowed rate of fire) extends it.
func (w *Weapon) coasted(now uint32) bool {
	t := w.template
	if !w.fired {
		return false
	}
	longest := t.MaxDelayBetweenShots
	if w.nextFire != NeverFrame && w.nextFire > w.lastFire && w.nextFire-w.lastFire > longest {
		longest = w.nextFire - w.lastFire
	}
	return now-w.lastFire > longest+t.ContinuousFireCoast
}

func (w *Weapon) advanceBarrel(source Entity) {
	barrels := source.Barrels
	if source.Disguised && source.DisguisedBarrels > 0 {
		barrels = source.DisguisedBarrels
	}
	if barrels <= 0 {
		barrels = 1
	}
	w.barrelShots++
	if w.barrelShots >= w.template.ShotsPerBarrel {
		w.barrelShots = 0
		w.barrel++
		if w.barrel >= barrels {
			w.barrel = 0
		}
	}
}

// PreFire starts the pre-attack telegraph for a shot at victim. The delay is
// waived for follow-up shots according to the template's granularity.
func (w *Weapon) PreFire(victim ObjectID) {
	if w == nil {
		return
	}
	s := w.store
	t := w.template
	source, ok := s.lookup(w.owner)
	if !ok {
		return
	}
	now := s.Frame()
	delay := w.preAttackDelay(victim, s.ComputeBonus(t, source, w))
	if delay > 0 {
		w.status = StatusPreAttack
		w.preAttackFinished = now + delay
		if t.LeechRangeWeapon {
			w.leechActive = true
		}
	}
	if t.PreAttackFX != "" && now >= w.nextPreAttackFX {
		at := source.Position
		if target, found := s.lookup(victim); found {
			at = target.Position
		}
		err := s.deps.Presenter.PlayFX(FXRequest{
			Kind:   FXPreAttack,
			Name:   t.PreAttackFX,
			Weapon: t.Name,
			Source: w.owner,
			Victim: victim,
			From:   source.Position,
			At:     at,
		})
		if err != nil {
			s.deps.Logger.Printf("weapon %q: pre-attack fx %q: %v", t.Name, t.PreAttackFX, err)
		}
		w.nextPreAttackFX = now + t.PreAttackFXDelay
	}
}

func (w *Weapon) preAttackDelay(victim ObjectID, b bonus.Bonus) uint32 {
	t := w.template
	switch t.PreAttackType {
	case PreAttackPerAttack:
		if w.consecutiveShots > 0 && victim == w.attackVictim {
			return 0
		}
	case PreAttackPerClip:
		if t.HasClip() && w.ammo < t.ClipSize {
			return 0
		}
	}
	return t.PreAttackTime(b)
}

// Reload refills the clip. An instant reload makes the weapon ready this
// frame.
func (w *Weapon) Reload(instant bool) {
	if w == nil {
		return
	}
	b := bonus.Neutral()
	if source, ok := w.store.lookup(w.owner); ok {
		b = w.store.ComputeBonus(w.template, source, w)
	}
	w.reloadWith(b, instant)
}

func (w *Weapon) reloadWith(b bonus.Bonus, instant bool) {
	s := w.store
	t := w.template
	now := s.Frame()
	w.rebuildScatterQueue()
	w.ammo = clipAmmo(t)
	w.status = StatusReloadingClip
	var reload uint32
	if !instant {
		reload = t.ReloadTime(b)
	}
	w.lastReloadStarted = now
	w.nextFire = now + reload
	w.mirror(true)
	loggingweapons.Reload(
		context.Background(),
		s.deps.Publisher,
		uint64(now),
		s.entityRef(w.owner),
		loggingweapons.ReloadPayload{
			Weapon:     t.Name,
			Slot:       w.slot,
			Ammo:       w.ammo,
			ReadyFrame: w.nextFire,
			Instant:    instant,
		},
		nil,
	)
}

// ReloadIfIdle reloads a partially spent clip once the weapon has gone
// IdleReloadDelay frames without firing. It reports whether a reload began.
func (w *Weapon) ReloadIfIdle() bool {
	if w == nil {
		return false
	}
	t := w.template
	if t.IdleReloadDelay == 0 || !t.HasClip() || w.ammo >= t.ClipSize {
		return false
	}
	if t.Reload != ReloadAuto && w.ammo == 0 {
		return false
	}
	switch w.Status() {
	case StatusReloadingClip, StatusPreAttack:
		return false
	}
	now := w.store.Frame()
	if now-w.lastFire < t.IdleReloadDelay {
		return false
	}
	w.Reload(false)
	return true
}

// OnBonusChanged restamps an in-progress cooldown or reload with the delay
// the owner's new bonus implies.
func (w *Weapon) OnBonusChanged() {
	if w == nil {
		return
	}
	s := w.store
	t := w.template
	source, ok := s.lookup(w.owner)
	if !ok {
		return
	}
	b := s.ComputeBonus(t, source, w)
	var delay uint32
	switch w.Status() {
	case StatusReloadingClip:
		delay = t.ReloadTime(b)
	case StatusBetweenFiringShots:
		delay = movingDelay(t, source, t.DelayBetweenShots(b, s.randFrames))
	default:
		return
	}
	now := s.Frame()
	w.lastReloadStarted = now
	w.nextFire = now + delay
	w.mirror(false)
}

// EndAttack clears per-attack state: leech range, continuous fire and aim
// memory.
func (w *Weapon) EndAttack() {
	if w == nil {
		return
	}
	w.leechActive = false
	w.attackVictim = InvalidID
	w.consecutiveShots = 0
	w.aimVictim = InvalidID
	w.aimExpires = 0
	w.preAttackFinished = 0
}

// TransferReloadStateFrom copies cooldown progress from other, typically the
// weapon this one replaces after a loadout rebuild.
func (w *Weapon) TransferReloadStateFrom(other *Weapon) {
	if w == nil || other == nil {
		return
	}
	w.nextFire = other.nextFire
	w.lastReloadStarted = other.lastReloadStarted
	w.lastFire = other.lastFire
	w.status = other.status
}

// EstimateDamage previews the primary damage the owner would deal to victim
// right now. It has no side effects.
func (w *Weapon) EstimateDamage(victim ObjectID) float64 {
	if w == nil {
		return 0
	}
	s := w.store
	t := w.template
	source, ok := s.lookup(w.owner)
	if !ok {
		return 0
	}
	target, ok := s.lookup(victim)
	if !ok || !t.CanTarget(target) || t.Affects.Has(AffectsKillsSelf) {
		return 0
	}
	b := s.ComputeBonus(t, source, w)
	record := t.buildRecord(s, source, target, target.Position, t.PrimaryDamage*b.Field(bonus.DimensionDamage), b, t.DamageType, t.DeathType)
	if s.deps.Damage == nil {
		return record.Amount
	}
	return s.deps.Damage.EstimateDamage(victim, record)
}

func (w *Weapon) rebuildScatterQueue() {
	t := w.template
	if t.Scatter == nil || len(t.Scatter.Targets) == 0 {
		return
	}
	w.scatterOrigin = geom.Coord3D{}
	total := len(t.Scatter.Targets)
	if t.Scatter.Recenter && len(w.scatterQueue) > 0 && len(w.scatterQueue) < total {
		var sum geom.Coord3D
		for _, index := range w.scatterQueue {
			sum = sum.Add(w.scaledScatter(index))
		}
		w.scatterOrigin = sum.Scale(1 / float64(len(w.scatterQueue)))
		w.scatterOrigin.Z = 0
	}
	w.scatterQueue = w.scatterQueue[:0]
	for i := 0; i < total; i++ {
		w.scatterQueue = append(w.scatterQueue, i)
	}
}

func (w *Weapon) scaledScatter(index int) geom.Coord3D {
	scalar := w.template.Scatter.TargetScalar
	if scalar == 0 {
		scalar = 1
	}
	offset := w.template.Scatter.Targets[index].Scale(scalar)
	offset.Z = 0
	return offset
}

// nextScatterOffset draws an unused pattern offset, refilling the queue when
// it runs dry.
func (w *Weapon) nextScatterOffset(s *Store) (geom.Coord3D, bool) {
	if len(w.scatterQueue) == 0 {
		w.rebuildScatterQueue()
		if len(w.scatterQueue) == 0 {
			return geom.Coord3D{}, false
		}
	}
	pick := s.deps.RNG.Intn(len(w.scatterQueue))
	index := w.scatterQueue[pick]
	last := len(w.scatterQueue) - 1
	w.scatterQueue[pick] = w.scatterQueue[last]
	w.scatterQueue = w.scatterQueue[:last]
	return w.scaledScatter(index).Sub(w.scatterOrigin), true
}

// ScatterRemaining reports how many pattern offsets are unused.
func (w *Weapon) ScatterRemaining() int {
	if w == nil {
		return 0
	}
	return len(w.scatterQueue)
}

func (w *Weapon) mirror(refill bool) {
	if w.set == nil {
		return
	}
	source, ok := w.store.lookup(w.owner)
	if !ok || !source.SharedReload {
		return
	}
	w.set.mirror(w, refill)
}
