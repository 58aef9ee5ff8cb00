package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d, err := NewDevice("dev", []string{"idle", "busy"}, WithTimings(map[string]float64{"t_delay": 1.0}))
	require.NoError(t, err)
	return d
}

func TestNewDeviceRejectsEmptyStates(t *testing.T) {
	_, err := NewDevice("dev", nil)
	require.Error(t, err)
}

func TestNewDeviceRejectsBadTimingName(t *testing.T) {
	_, err := NewDevice("dev", []string{"idle"}, WithTimings(map[string]float64{"delay": 1.0}))
	require.Error(t, err)
}

func TestDeviceInitialState(t *testing.T) {
	d := newTestDevice(t)
	require.Equal(t, "idle", d.State())
}

func TestActOutXtoRequireRunningHandler(t *testing.T) {
	d := newTestDevice(t)

	err := d.Act("anything", At(1), nil, nil)
	require.Error(t, err)
	require.IsType(t, ErrReentrancy{}, err)

	err = d.Out("out1", nil)
	require.Error(t, err)
	require.IsType(t, ErrReentrancy{}, err)

	err = d.Xto("idle", "busy")
	require.Error(t, err)
	require.IsType(t, ErrReentrancy{}, err)
}

func TestDeviceInputOutputXtoRoundTrip(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.AddOutput("out1")
	require.NoError(t, err)

	err = d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		require.NoError(t, dev.Xto("idle", "busy"))
		require.NoError(t, dev.Out("out1", *value))
		return nil, nil
	})
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), mustValue(NewIntValue(9)), nil)
	require.NoError(t, err)
	require.Equal(t, "busy", d.State())
	require.True(t, d.Outputs()["out1"].Value().Equal(NewIntValue(9)))
}

func mustValue(v EventValue) *EventValue { return &v }

func TestDeviceWrapperRejectsReentrantCall(t *testing.T) {
	d := newTestDevice(t)
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return dev.Inputs()["in1"](time, value, context)
	})
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.Error(t, err)
	require.IsType(t, ErrReentrancy{}, err)
}

func TestActResolvesActPrefixLookupOrder(t *testing.T) {
	d := newTestDevice(t)
	var invoked string
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		require.NoError(t, dev.Act("newdata", time, nil, nil))
		return nil, nil
	})
	require.NoError(t, err)
	err = d.RegisterSimpleAction("act_newdata", func(dev *Device, time EventTime) ([]Event, error) {
		invoked = "act_newdata"
		return nil, nil
	})
	require.NoError(t, err)

	events, err := d.Inputs()["in1"](At(1), nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = events[0].Action()
	require.NoError(t, err)
	require.Equal(t, "act_newdata", invoked)
}

func TestActRejectsValueForStrictAction(t *testing.T) {
	d := newTestDevice(t)
	err := d.RegisterSimpleAction("newdata", func(dev *Device, time EventTime) ([]Event, error) {
		return nil, nil
	})
	require.NoError(t, err)

	err = d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return nil, dev.Act("newdata", time, 5, nil)
	})
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.Error(t, err)
	require.IsType(t, ErrArityMismatch{}, err)
}

func TestXtoRejectsUnknownState(t *testing.T) {
	d := newTestDevice(t)
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return nil, dev.Xto("idle", "nowhere")
	})
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.Error(t, err)
	require.IsType(t, ErrStateGuard{}, err)
}

func TestXtoRejectsWrongCurrentState(t *testing.T) {
	d := newTestDevice(t)
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return nil, dev.Xto("busy", "idle")
	})
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.Error(t, err)
	require.IsType(t, ErrStateGuard{}, err)
}

func TestXtoEmptyNewStateStaysPut(t *testing.T) {
	d := newTestDevice(t)
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return nil, dev.Xto("idle", "")
	})
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "idle", d.State())
}

func TestHookPreAndPostOnInput(t *testing.T) {
	d := newTestDevice(t)
	var order []string
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		order = append(order, "body")
		return nil, nil
	})
	require.NoError(t, err)

	_, err = d.Hook("in1", func(EventTime, *EventValue, interface{}) ([]Event, error) {
		order = append(order, "pre")
		return nil, nil
	}, nil, false)
	require.NoError(t, err)

	_, err = d.Hook("in1", func(EventTime, *EventValue, interface{}) ([]Event, error) {
		order = append(order, "post")
		return nil, nil
	}, nil, true)
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"pre", "body", "post"}, order)
}

func TestHookOnOutputConnectsToSignal(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.AddOutput("out1")
	require.NoError(t, err)
	err = d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return nil, dev.Out("out1", NewIntValue(1))
	})
	require.NoError(t, err)

	var hooked bool
	_, err = d.Hook("out1", func(EventTime, *EventValue, interface{}) ([]Event, error) {
		hooked = true
		return nil, nil
	}, nil, false)
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.NoError(t, err)
	require.True(t, hooked)
}

func TestUnhookByNameRemovesHook(t *testing.T) {
	d := newTestDevice(t)
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		return nil, nil
	})
	require.NoError(t, err)

	var calls int
	_, err = d.Hook("in1", func(EventTime, *EventValue, interface{}) ([]Event, error) {
		calls++
		return nil, nil
	}, nil, false)
	require.NoError(t, err)

	d.Unhook("in1")
	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, calls)
}

func TestHookUnknownComponent(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.Hook("nope", func(EventTime, *EventValue, interface{}) ([]Event, error) { return nil, nil }, nil, false)
	require.Error(t, err)
	require.IsType(t, ErrUnknownComponent{}, err)
}

func TestOutPostHookSilentlyBecomesPreHook(t *testing.T) {
	d := newTestDevice(t)
	var order []string
	err := d.RegisterInput("in1", func(dev *Device, time EventTime, value *EventValue, context interface{}) ([]Event, error) {
		order = append(order, "body")
		return nil, dev.Out("out1", nil)
	})
	require.NoError(t, err)
	_, err = d.AddOutput("out1")
	require.NoError(t, err)

	_, err = d.Hook("out", func(EventTime, *EventValue, interface{}) ([]Event, error) {
		order = append(order, "out-hook")
		return nil, nil
	}, nil, true) // requested after, should behave as pre
	require.NoError(t, err)

	_, err = d.Inputs()["in1"](At(1), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"body", "out-hook"}, order)
}
