package event

import (
	"github.com/jypelle/navlink/apimodel"
)

// Api events are handled by the main loop, which answers on Result.
type ApiEvent struct {
	Result chan ApiResult
	Data   interface{}
}

type ApiResult struct {
	Err   error
	Value interface{}
}

type ApiEventStatusData struct{}

type ApiEventNavigationData struct {
	Navigation apimodel.Navigation
}

type ApiEventNavigationClearData struct{}

type ApiEventLinkLineData struct {
	Line string
}

type ApiEventLinkOutboxData struct{}

type ApiEventButtonData struct {
	Pressed bool
}
