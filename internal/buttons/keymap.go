package buttons

// Linux input-event-codes.h
const (
	keyEsc     = 1
	keyMinus   = 12
	keyEqual   = 13
	keyQ       = 16
	keyF4      = 62
	keyKPMinus = 74
	keyKPPlus  = 78
	keyUp      = 103
	keyLeft    = 105
	keyRight   = 106
	keyDown    = 108
	keyBack    = 158

	btnLeft      = 0x110
	btnEast      = 0x131
	btnSelect    = 0x13a
	btnStart     = 0x13b
	btnTouch     = 0x14a
	btnDpadUp    = 0x220
	btnDpadDown  = 0x221
	btnDpadLeft  = 0x222
	btnDpadRight = 0x223
)

var keymap = map[uint16]Event{
	keyLeft:      PrevCategory,
	btnDpadLeft:  PrevCategory,
	keyRight:     NextCategory,
	btnDpadRight: NextCategory,

	keyEqual:    IncreaseInterval,
	keyKPPlus:   IncreaseInterval,
	keyUp:       IncreaseInterval,
	btnDpadUp:   IncreaseInterval,
	btnStart:    IncreaseInterval,
	keyMinus:    DecreaseInterval,
	keyKPMinus:  DecreaseInterval,
	keyDown:     DecreaseInterval,
	btnDpadDown: DecreaseInterval,
	btnSelect:   DecreaseInterval,

	keyEsc:  Exit,
	keyQ:    Exit,
	keyF4:   Exit,
	keyBack: Exit,
	btnEast: Exit,

	btnTouch: Wake,
	btnLeft:  Wake,
}

// EventForKey maps an evdev key code to an Event. Unmapped keys wake the overlay.
func EventForKey(code uint16) Event {
	if ev, ok := keymap[code]; ok {
		return ev
	}
	return Wake
}
