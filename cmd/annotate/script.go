package main

import (
	"encoding/json"
	"fmt"
	"os"

	"seehuhn.de/go/geom/vec"

	annotator "github.com/menta2k/doc-annotator"
	"github.com/menta2k/doc-annotator/pkg/capture"
	"github.com/menta2k/doc-annotator/pkg/types"
)

// Script is a recorded annotation session
type Script struct {
	Actions []Action `json:"actions"`
}

// Action is one step of a script. Exactly one field group is set.
type Action struct {
	Tool  string `json:"tool,omitempty"`
	Color string `json:"color,omitempty"`

	// Event is start, move or end; X and Y are screen coordinates
	Event string  `json:"event,omitempty"`
	Touch bool    `json:"touch,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`

	// Comment saves the pending comment with this text
	Comment *string `json:"comment,omitempty"`
	Cancel  bool    `json:"cancel,omitempty"`
	Clear   bool    `json:"clear,omitempty"`

	// Dismiss deletes the comment with this ID; DismissLast deletes the
	// most recently placed one
	Dismiss     string `json:"dismiss,omitempty"`
	DismissLast bool   `json:"dismiss_last,omitempty"`

	// Scroll moves the document surface to [left, top] on screen
	Scroll *[2]float64 `json:"scroll,omitempty"`
	// Resize sets the overlay to [width, height] pixels
	Resize *[2]int `json:"resize,omitempty"`
}

// LoadScript reads a script from a JSON file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &s, nil
}

// Replay runs every action against a and returns how many changed the
// annotation state
func (s *Script) Replay(a *annotator.Annotator) (int, error) {
	var applied int
	for i, act := range s.Actions {
		ok, err := act.apply(a)
		if err != nil {
			return applied, fmt.Errorf("action %d: %w", i+1, err)
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

func (act Action) apply(a *annotator.Annotator) (bool, error) {
	switch {
	case act.Tool != "":
		t, err := types.ParseTool(act.Tool)
		if err != nil {
			return false, err
		}
		a.SetTool(t)
		return true, nil
	case act.Color != "":
		c, err := types.ParseColor(act.Color)
		if err != nil {
			return false, err
		}
		a.SetColor(c)
		return true, nil
	case act.Event != "":
		ev, err := act.event()
		if err != nil {
			return false, err
		}
		return a.Handle(ev).Handled, nil
	case act.Comment != nil:
		return a.SaveComment(*act.Comment), nil
	case act.Cancel:
		return a.CancelComment(), nil
	case act.Clear:
		a.ClearAll()
		return true, nil
	case act.Dismiss != "":
		return a.DismissComment(act.Dismiss), nil
	case act.DismissLast:
		comments := a.Scene().Comments()
		if len(comments) == 0 {
			return false, nil
		}
		return a.DismissComment(comments[len(comments)-1].ID), nil
	case act.Scroll != nil:
		a.ScrollTo(act.Scroll[0], act.Scroll[1])
		return true, nil
	case act.Resize != nil:
		if act.Resize[0] <= 0 || act.Resize[1] <= 0 {
			return false, fmt.Errorf("invalid resize: %dx%d", act.Resize[0], act.Resize[1])
		}
		a.Resize(act.Resize[0], act.Resize[1])
		return true, nil
	}
	return false, fmt.Errorf("empty action")
}

func (act Action) event() (capture.RawEvent, error) {
	var typ capture.EventType
	switch act.Event {
	case "start":
		typ = capture.EventStart
	case "move":
		typ = capture.EventMove
	case "end":
		typ = capture.EventEnd
	default:
		return capture.RawEvent{}, fmt.Errorf("unknown event: %q", act.Event)
	}

	p := vec.Vec2{X: act.X, Y: act.Y}
	if !act.Touch {
		return capture.RawEvent{Type: typ, Source: capture.SourcePointer, Client: p}, nil
	}
	ev := capture.RawEvent{Type: typ, Source: capture.SourceTouch}
	if typ != capture.EventEnd {
		ev.Touches = []vec.Vec2{p}
	}
	return ev, nil
}
