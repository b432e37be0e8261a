package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/vesperkey/vesper/internal/input/key"
)

// convertEvent translates a tcell key event into the engine's event
// type.
func convertEvent(ev *tcell.EventKey) key.Event {
	mods := convertMods(ev.Modifiers())

	if ev.Key() == tcell.KeyRune {
		return key.NewRuneEvent(ev.Rune(), mods)
	}

	// Named keys first: several share byte values with the Ctrl-letter
	// range (Tab=Ctrl-I, Enter=Ctrl-M, Esc=Ctrl-[).
	switch ev.Key() {
	case tcell.KeyEscape:
		return key.NewSpecialEvent(key.KeyEscape, mods)
	case tcell.KeyEnter:
		return key.NewSpecialEvent(key.KeyEnter, mods)
	case tcell.KeyTab:
		return key.NewSpecialEvent(key.KeyTab, mods)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NewSpecialEvent(key.KeyBackspace, mods)
	case tcell.KeyDelete:
		return key.NewSpecialEvent(key.KeyDelete, mods)
	case tcell.KeyInsert:
		return key.NewSpecialEvent(key.KeyInsert, mods)
	case tcell.KeyHome:
		return key.NewSpecialEvent(key.KeyHome, mods)
	case tcell.KeyEnd:
		return key.NewSpecialEvent(key.KeyEnd, mods)
	case tcell.KeyPgUp:
		return key.NewSpecialEvent(key.KeyPageUp, mods)
	case tcell.KeyPgDn:
		return key.NewSpecialEvent(key.KeyPageDown, mods)
	case tcell.KeyUp:
		return key.NewSpecialEvent(key.KeyUp, mods)
	case tcell.KeyDown:
		return key.NewSpecialEvent(key.KeyDown, mods)
	case tcell.KeyLeft:
		return key.NewSpecialEvent(key.KeyLeft, mods)
	case tcell.KeyRight:
		return key.NewSpecialEvent(key.KeyRight, mods)
	}

	if ev.Key() >= tcell.KeyF1 && ev.Key() <= tcell.KeyF12 {
		return key.NewSpecialEvent(key.KeyF1+key.Key(ev.Key()-tcell.KeyF1), mods)
	}

	// Ctrl-letter combinations arrive as dedicated control bytes with
	// the modifier stripped.
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		r := rune('a' + (ev.Key() - tcell.KeyCtrlA))
		return key.NewRuneEvent(r, mods.With(key.ModCtrl))
	}

	return key.Event{}
}

func convertMods(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}
