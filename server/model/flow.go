package model

type Flow struct {
	Id                string `json:"id"`
	Name              string `json:"name"`
	SenderAdapterId   string `json:"senderAdapterId"`
	ReceiverAdapterId string `json:"receiverAdapterId"`
	Active            bool   `json:"active"`
	// ScheduleSeconds re-arms the flow on the scheduler when > 0. A flow
	// without a schedule only runs on explicit trigger.
	ScheduleSeconds int `json:"scheduleSeconds"`
}

type FlowExecutionRequest struct {
	FlowId      string `json:"flowId"`
	TriggeredBy string `json:"triggeredBy"`
}
