package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
)

type simulationWindow struct {
	window *app.Window
}

func (d *Display) startSimulation() {
	d.simulationWindow.window = app.NewWindow(
		app.Title("navlink"),
		app.Size(unit.Px(float32(2*d.param.PixelWidth)), unit.Px(float32(2*d.param.PixelHeight))),
		app.MinSize(unit.Px(float32(d.param.PixelWidth)), unit.Px(float32(d.param.PixelHeight))),
	)
	go func() {
		if err := d.gioloop(); err != nil {
			logrus.Fatalf("Simulation window failed: %v", err)
		}
	}()
	go app.Main()
}

func (d *Display) invalidateSimulationWindow() {
	if d.simulationWindow.window != nil {
		d.simulationWindow.window.Invalidate()
	}
}

func (d *Display) closeSimulationWindow() {
	if d.simulationWindow.window != nil {
		d.simulationWindow.window.Close()
	}
}

func (d *Display) gioloop() error {
	var ops op.Ops
	for {
		e := <-d.simulationWindow.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			d.lock.RLock()
			lastImg := d.lastImg
			d.lock.RUnlock()

			if lastImg != nil {
				img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
				img.Layout(gtx)
			}
			e.Frame(gtx.Ops)
		}
	}
}
