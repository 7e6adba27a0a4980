package template

import (
	"github.com/charlie0129/sensorcal/pkg/calibration"
)

// Record kinds of the built-in modules. User templates should pick kinds
// above 100.
const (
	KindPH        int32 = 1
	KindORP       int32 = 2
	KindEC        int32 = 3
	KindTurbidity int32 = 4
)

var builtins = []Template{
	{
		Key:         "ph",
		Kind:        KindPH,
		Curve:       calibration.Linear,
		Description: "pH probe, NIST buffers 4/7/10",
		Standards: []calibration.Standard{
			calibration.FixedStandard(4.0),
			calibration.FixedStandard(7.0),
			calibration.FixedStandard(10.0),
		},
	},
	{
		Key:         "orp",
		Kind:        KindORP,
		Curve:       calibration.Linear,
		Description: "ORP probe in mV, third solution entered by the operator",
		Standards: []calibration.Standard{
			calibration.DefaultStandard(0),
			calibration.DefaultStandard(225),
			calibration.UnknownStandard(),
		},
	},
	{
		Key:         "ec",
		Kind:        KindEC,
		Curve:       calibration.Exponential,
		Description: "Conductivity probe in uS/cm, fourth solution entered by the operator",
		Standards: []calibration.Standard{
			calibration.DefaultStandard(84),
			calibration.DefaultStandard(1413),
			calibration.DefaultStandard(12880),
			calibration.UnknownStandard(),
		},
	},
	{
		Key:         "turbidity",
		Kind:        KindTurbidity,
		Curve:       calibration.Exponential,
		Description: "Turbidity sensor in NTU",
		Standards: []calibration.Standard{
			calibration.FixedStandard(0),
			calibration.DefaultStandard(100),
			calibration.DefaultStandard(800),
			calibration.DefaultStandard(4000),
		},
	},
}

// Builtin returns a registry holding the built-in sensor modules.
func Builtin() *Registry {
	r := NewRegistry()
	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}
