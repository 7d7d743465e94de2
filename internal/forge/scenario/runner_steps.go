package scenario

import (
	"errors"
	"path/filepath"
	"slices"

	"github.com/louisbranch/darkforge/internal/forge/action"
	"github.com/louisbranch/darkforge/internal/forge/clock"
	"github.com/louisbranch/darkforge/internal/forge/entropy"
	"github.com/louisbranch/darkforge/internal/forge/ledger"
	"github.com/louisbranch/darkforge/internal/forge/rules"
	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

const (
	stepRuleset     = "ruleset"
	stepCharacter   = "character"
	stepFaces       = "faces"
	stepAction      = "action"
	stepCommit      = "commit"
	stepExpect      = "expect"
	stepStress      = "stress"
	stepClearStress = "clear_stress"
	stepTrauma      = "trauma"
	stepHarm        = "harm"
	stepClock       = "clock"
	stepTick        = "tick"
	stepResetClock  = "reset_clock"
)

func (r *Runner) runStep(state *scenarioState, step Step) error {
	switch step.Kind {
	case stepRuleset:
		return r.runRulesetStep(state, step)
	case stepCharacter:
		return r.runCharacterStep(state, step)
	case stepFaces:
		return r.runFacesStep(state, step)
	case stepAction:
		return r.runActionStep(state, step)
	case stepCommit:
		return r.runCommitStep(state, step)
	case stepExpect:
		return r.runExpectStep(state, step)
	case stepStress:
		actor, err := r.actorName(state, step.Args)
		if err != nil {
			return err
		}
		delta := ledger.StressDelta(optionalInt(step.Args, "amount", 1))
		delta.Trauma = optionalString(step.Args, "trauma", "")
		return r.applyDeltas(state, actor, delta)
	case stepClearStress:
		actor, err := r.actorName(state, step.Args)
		if err != nil {
			return err
		}
		return r.applyDeltas(state, actor, ledger.ClearStressDelta(optionalInt(step.Args, "amount", 0)))
	case stepTrauma:
		actor, err := r.actorName(state, step.Args)
		if err != nil {
			return err
		}
		return r.applyDeltas(state, actor, ledger.TraumaDelta(optionalString(step.Args, "name", "")))
	case stepHarm:
		return r.runHarmStep(state, step)
	case stepClock:
		return r.runClockStep(state, step)
	case stepTick:
		return r.runTickStep(state, step)
	case stepResetClock:
		return r.runResetClockStep(state, step)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

// checkStepError reconciles a step's result with its expect_error argument.
func (r *Runner) checkStepError(step Step, err error) error {
	want := optionalString(step.Args, "expect_error", "")
	var scriptErr *scriptError
	if want == "" || errors.As(err, &scriptErr) {
		return err
	}
	if err == nil {
		return r.assertf("expected error %s, got none", want)
	}
	if got := apperrors.CodeOf(err); string(got) != want {
		return r.assertf("error code = %s, want %s (%v)", got, want, err)
	}
	r.logf("step failed as expected: %v", err)
	return nil
}

func (r *Runner) runRulesetStep(state *scenarioState, step Step) error {
	var (
		rs  *rules.Ruleset
		err error
	)
	if path := optionalString(step.Args, "file", ""); path != "" {
		if !filepath.IsAbs(path) && state.dir != "" {
			path = filepath.Join(state.dir, path)
		}
		rs, err = rules.LoadFile(path)
	} else if data := optionalString(step.Args, "yaml", ""); data != "" {
		rs, err = rules.Parse([]byte(data))
	} else {
		return r.failf("ruleset requires file or yaml")
	}
	if err != nil {
		return err
	}
	state.ruleset = rs
	r.logf("ruleset %s", rs.Ident())
	return nil
}

func (r *Runner) runCharacterStep(state *scenarioState, step Step) error {
	name := requiredString(step.Args, "name")
	if name == "" {
		return r.failf("character name is required")
	}
	if _, ok := state.ledgers[name]; ok {
		return r.failf("character %q already exists", name)
	}

	cfg := state.ruleset.Ledger
	l := ledger.New(cfg)
	l.Stress.Filled = optionalInt(step.Args, "stress", 0)
	l.Trauma = readStringList(step.Args, "trauma")
	l.Retired = optionalBool(step.Args, "retired", false)
	if value := optionalString(step.Args, "harm", ""); value != "" {
		harm, err := ledger.ParseHarmLevel(value)
		if err != nil {
			return err
		}
		l.Harm = harm
	}
	if err := l.Validate(cfg); err != nil {
		return err
	}
	l.Retired = l.IsRetired(cfg)

	state.ledgers[name] = l
	state.lastActor = name
	return nil
}

func (r *Runner) runFacesStep(state *scenarioState, step Step) error {
	faces, err := readIntList(step.Args, "faces")
	if err != nil {
		return r.failf("faces: %v", err)
	}
	if _, err := entropy.NewScript(faces...); err != nil {
		return err
	}
	state.faces = append(state.faces, faces...)
	return nil
}

func (r *Runner) runActionStep(state *scenarioState, step Step) error {
	actor, err := r.actorName(state, step.Args)
	if err != nil {
		return err
	}
	snapshot := state.ledgers[actor]

	pool, ok := readInt(step.Args, "pool")
	if !ok {
		return r.failf("action pool is required")
	}
	position, err := rules.ParsePosition(optionalString(step.Args, "position", rules.PositionRisky.String()))
	if err != nil {
		return err
	}
	effect, err := rules.ParseEffect(optionalString(step.Args, "effect", rules.EffectStandard.String()))
	if err != nil {
		return err
	}
	req := action.Request{Pool: pool, Position: position, Effect: effect}

	var res action.Resolution
	switch {
	case step.Args["faces"] != nil:
		faces, err := readIntList(step.Args, "faces")
		if err != nil {
			return r.failf("action faces: %v", err)
		}
		script, err := entropy.NewScript(faces...)
		if err != nil {
			return err
		}
		res, err = action.Resolve(req, script, snapshot, state.ruleset)
		if err != nil {
			return err
		}
	case step.Args["seed"] != nil:
		seed, ok := readInt(step.Args, "seed")
		if !ok {
			return r.failf("action seed must be an integer")
		}
		res, err = action.Resolve(req, entropy.NewUniform(int64(seed)), snapshot, state.ruleset)
		if err != nil {
			return err
		}
	default:
		script, err := entropy.NewScript(state.faces...)
		if err != nil {
			return err
		}
		res, err = action.Resolve(req, script, snapshot, state.ruleset)
		state.faces = state.faces[len(state.faces)-script.Remaining():]
		if err != nil {
			return err
		}
	}

	state.lastActor = actor
	state.lastAction[actor] = &pending{resolution: res}
	r.logf("%s rolled %v: %s (progress %d)", actor, res.Outcome.Faces, res.Outcome.Tier, res.Progress)
	return nil
}

// runCommitStep applies the actor's last resolution. A named clock advances
// by the resolution's progress; the clock and the ledger change together or
// not at all.
func (r *Runner) runCommitStep(state *scenarioState, step Step) error {
	actor, err := r.actorName(state, step.Args)
	if err != nil {
		return err
	}
	p := state.lastAction[actor]
	if p == nil {
		return r.failf("no action to commit for %s", actor)
	}
	if p.committed {
		return r.failf("action for %s already committed", actor)
	}

	var update *clock.Update
	if name := optionalString(step.Args, "clock", ""); name != "" && p.resolution.Progress > 0 {
		c, ok := state.clocks[name]
		if !ok {
			return r.failf("unknown clock %q", name)
		}
		upd, err := c.Advance(p.resolution.Progress)
		if err != nil {
			return err
		}
		update = &upd
	}

	next, events, err := action.Apply(p.resolution, state.ledgers[actor], state.ruleset, optionalString(step.Args, "trauma", ""))
	if err != nil {
		return err
	}

	state.ledgers[actor] = next
	state.lastEvents = events
	if update != nil {
		state.clocks[update.Clock.Name] = update.Clock
		state.lastClock = update
	}
	p.committed = true
	return nil
}

func (r *Runner) runHarmStep(state *scenarioState, step Step) error {
	actor, err := r.actorName(state, step.Args)
	if err != nil {
		return err
	}
	level, err := ledger.ParseHarmLevel(optionalString(step.Args, "level", ""))
	if err != nil {
		return err
	}
	return r.applyDeltas(state, actor, ledger.HarmDelta(level, optionalBool(step.Args, "justified", false)))
}

func (r *Runner) applyDeltas(state *scenarioState, actor string, deltas ...ledger.Delta) error {
	next, events, err := ledger.Apply(state.ledgers[actor], state.ruleset.Ledger, deltas)
	if err != nil {
		return err
	}
	state.ledgers[actor] = next
	state.lastEvents = events
	state.lastActor = actor
	return nil
}

func (r *Runner) runClockStep(state *scenarioState, step Step) error {
	name := requiredString(step.Args, "name")
	if name == "" {
		return r.failf("clock name is required")
	}
	if _, ok := state.clocks[name]; ok {
		return r.failf("clock %q already exists", name)
	}
	c, err := clock.New(name, optionalInt(step.Args, "segments", 0))
	if err != nil {
		return err
	}
	c.Filled = optionalInt(step.Args, "filled", 0)
	if err := c.Validate(); err != nil {
		return err
	}
	state.clocks[name] = c
	return nil
}

func (r *Runner) runTickStep(state *scenarioState, step Step) error {
	c, err := r.clockNamed(state, step.Args)
	if err != nil {
		return err
	}
	update, err := c.Advance(optionalInt(step.Args, "by", 1))
	if err != nil {
		return err
	}
	state.clocks[c.Name] = update.Clock
	state.lastClock = &update
	if update.Completed {
		r.logf("clock %s complete", c.Name)
	}
	return nil
}

func (r *Runner) runResetClockStep(state *scenarioState, step Step) error {
	c, err := r.clockNamed(state, step.Args)
	if err != nil {
		return err
	}
	state.clocks[c.Name] = c.Reset()
	state.lastClock = nil
	return nil
}

func (r *Runner) runExpectStep(state *scenarioState, step Step) error {
	args := step.Args
	if err := r.expectOutcome(state, args); err != nil {
		return err
	}
	if err := r.expectLedger(state, args); err != nil {
		return err
	}
	if err := r.expectClock(state, args); err != nil {
		return err
	}
	if args["events"] != nil {
		kinds := readStringList(args, "events")
		got := make([]string, 0, len(state.lastEvents))
		for _, event := range state.lastEvents {
			got = append(got, string(event.Kind))
		}
		if !slices.Equal(got, kinds) {
			return r.assertf("events = %v, want %v", got, kinds)
		}
	}
	return nil
}

func (r *Runner) expectOutcome(state *scenarioState, args map[string]any) error {
	if !hasAny(args, "tier", "kept", "criticals", "rolled", "progress", "severity") {
		return nil
	}
	actor, err := r.actorName(state, args)
	if err != nil {
		return err
	}
	p := state.lastAction[actor]
	if p == nil {
		return r.failf("no action resolved for %s", actor)
	}
	res := p.resolution

	if want := optionalString(args, "tier", ""); want != "" && res.Outcome.Tier.String() != want {
		return r.assertf("%s tier = %s, want %s", actor, res.Outcome.Tier, want)
	}
	if want, ok := readInt(args, "kept"); ok && res.Outcome.Kept != want {
		return r.assertf("%s kept = %d, want %d", actor, res.Outcome.Kept, want)
	}
	if want, ok := readInt(args, "criticals"); ok && res.Outcome.CriticalCount != want {
		return r.assertf("%s criticals = %d, want %d", actor, res.Outcome.CriticalCount, want)
	}
	if args["rolled"] != nil {
		want, err := readIntList(args, "rolled")
		if err != nil {
			return r.failf("rolled: %v", err)
		}
		if !slices.Equal(res.Outcome.Faces, want) {
			return r.assertf("%s rolled = %v, want %v", actor, res.Outcome.Faces, want)
		}
	}
	if want, ok := readInt(args, "progress"); ok && res.Progress != want {
		return r.assertf("%s progress = %d, want %d", actor, res.Progress, want)
	}
	if want := optionalString(args, "severity", ""); want != "" && res.Consequence.Severity.String() != want {
		return r.assertf("%s severity = %s, want %s", actor, res.Consequence.Severity, want)
	}
	return nil
}

func (r *Runner) expectLedger(state *scenarioState, args map[string]any) error {
	if !hasAny(args, "stress", "trauma", "harm", "retired") {
		return nil
	}
	actor, err := r.actorName(state, args)
	if err != nil {
		return err
	}
	l := state.ledgers[actor]

	if want, ok := readInt(args, "stress"); ok && l.Stress.Filled != want {
		return r.assertf("%s stress = %d, want %d", actor, l.Stress.Filled, want)
	}
	if args["trauma"] != nil {
		want := readStringList(args, "trauma")
		if !slices.Equal(l.Trauma, want) {
			return r.assertf("%s trauma = %v, want %v", actor, l.Trauma, want)
		}
	}
	if want := optionalString(args, "harm", ""); want != "" && l.Harm.String() != want {
		return r.assertf("%s harm = %s, want %s", actor, l.Harm, want)
	}
	if want, ok := readBool(args, "retired"); ok && l.IsRetired(state.ruleset.Ledger) != want {
		return r.assertf("%s retired = %t, want %t", actor, l.IsRetired(state.ruleset.Ledger), want)
	}
	return nil
}

func (r *Runner) expectClock(state *scenarioState, args map[string]any) error {
	if args["completed"] != nil {
		want, _ := readBool(args, "completed")
		got := state.lastClock != nil && state.lastClock.Completed
		if got != want {
			return r.assertf("clock completed = %t, want %t", got, want)
		}
	}
	name := optionalString(args, "clock", "")
	if name == "" {
		return nil
	}
	c, ok := state.clocks[name]
	if !ok {
		return r.failf("unknown clock %q", name)
	}
	if want, ok := readInt(args, "filled"); ok && c.Filled != want {
		return r.assertf("clock %s filled = %d, want %d", name, c.Filled, want)
	}
	if want, ok := readBool(args, "complete"); ok && c.Complete() != want {
		return r.assertf("clock %s complete = %t, want %t", name, c.Complete(), want)
	}
	return nil
}
