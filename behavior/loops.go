package behavior

// idleLoop waits a random duration, then picks a wander destination.
type idleLoop struct {
	until float64
}

func (l *idleLoop) Enter(a *Agent, now float64) {
	lo, hi := a.params.IdleTime/2, a.params.IdleTime*2
	wait := lo
	if a.env.Rand != nil {
		wait += a.env.Rand.Float64() * (hi - lo)
	}
	l.until = now + wait
}

func (l *idleLoop) Step(a *Agent, now float64) {
	if !reached(now, l.until) {
		return
	}
	dest := a.env.Sampler.FindReachablePoint(a.Position(), a.params.WanderDistance)
	a.nav.SetDestination(dest)
	a.SetState(StateMoving)
}

// movingLoop walks toward the destination until arrival or MaxWalkTime,
// running the role's perception each tick.
type movingLoop struct {
	start float64
}

func (l *movingLoop) Enter(_ *Agent, now float64) {
	l.start = now
}

func (l *movingLoop) Step(a *Agent, now float64) {
	if reached(now, l.start+a.params.MaxWalkTime) {
		a.nav.ResetPath()
		a.SetState(StateIdle)
		return
	}

	epoch := a.epoch
	a.role.OnPerceptionTick(a)
	if a.epoch != epoch {
		// Perception moved us to another state.
		return
	}

	if a.arrived() {
		a.SetState(StateIdle)
	}
}

// wandererRole has no perception and refuses to chase.
type wandererRole struct{}

func (wandererRole) OnStateChanged(a *Agent, _ State) {
	a.nav.SetSpeed(a.params.WalkSpeed)
}

func (wandererRole) OnPerceptionTick(*Agent) {}

func (wandererRole) NewChaseLoop(*Agent) Loop {
	return refuseChaseLoop{}
}

// refuseChaseLoop drops straight back to Idle.
type refuseChaseLoop struct{}

func (refuseChaseLoop) Enter(a *Agent, _ float64) {
	a.SetState(StateIdle)
}

func (refuseChaseLoop) Step(*Agent, float64) {}
