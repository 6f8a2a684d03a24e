package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

// Ducker lowers other applications' playback while the assistant listens,
// so music does not end up in the transcript. Streams whose
// application.name is in keep are left alone.
type Ducker struct {
	mu       sync.Mutex
	ducked   bool
	keep     []string
	saved    map[int]int
	factor   float64
	floor    int
	duration time.Duration
}

func NewDucker(keep []string, factor float64, floor int, duration time.Duration) *Ducker {
	return &Ducker{
		keep:     append([]string(nil), keep...),
		saved:    make(map[int]int),
		factor:   factor,
		floor:    clampVolume(floor),
		duration: duration,
	}
}

// Duck fades every foreign stream to factor of its volume, never below floor.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked {
		return nil
	}

	inputs, err := listSinkInputs(ctx)
	if err != nil {
		return err
	}

	d.saved = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		if slices.Contains(d.keep, in.AppName) {
			continue
		}
		to := int(math.Round(float64(in.Volume) * d.factor))
		to = clampVolume(max(to, d.floor))

		d.saved[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: to})
	}

	if err := runFades(ctx, fades, d.duration); err != nil {
		return err
	}

	d.ducked = true
	return nil
}

// Restore fades ducked streams back to their saved volumes. Streams that
// appeared after Duck are not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ducked {
		return nil
	}

	inputs, err := listSinkInputs(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		if orig, ok := d.saved[in.ID]; ok {
			fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
		}
	}

	if err := runFades(ctx, fades, d.duration); err != nil {
		return err
	}

	d.saved = make(map[int]int)
	d.ducked = false
	return nil
}

func runFades(ctx context.Context, fades []fade, duration time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := max(int(duration/minStep), 1)
	stepDur := duration / time.Duration(steps)

	for i := 0; i <= steps; i++ {
		for _, f := range fades {
			if err := setSinkInputVolume(ctx, f.id, f.at(float64(i)/float64(steps))); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}

		if i < steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(stepDur):
			}
		}
	}

	return nil
}

func (f fade) at(frac float64) int {
	return int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
}

func clampVolume(v int) int {
	return min(max(v, 0), maxVolume)
}

func listSinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

// parseSinkInputs reads the first volume and application.name of every
// "Sink Input #N" block in pactl output.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	var res []sinkInput

	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if name, ok := strings.CutPrefix(line, "application.name = "); ok && in.AppName == "" {
				in.AppName = strings.Trim(name, `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}

	return res
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}
