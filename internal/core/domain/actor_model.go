package domain

import "time"

const (
	ACTOR_ID_MASTER = "master"
	ACTOR_ID_SERIAL = "serial"
	ACTOR_ID_MQTT   = "mqtt"
)

const (
	SOURCE_TCP  = "tcp"
	SOURCE_HTTP = "http"
	SOURCE_MQTT = "mqtt"
)

// ExecuteActionRequest asks the bridge to deliver one action to the device.
type ExecuteActionRequest struct {
	ActorRequestMixIn
	Action Action
	// Source names the surface the request came in on: tcp, http, mqtt.
	Source string
	// Deadline is when the caller stops waiting. The zero value means no limit.
	Deadline time.Time
}

type ExecuteActionResponse struct {
	ActorResponseMixIn
	Result BridgeResult
}

// ExecuteCommandRequest carries a raw utterance that still needs interpreting.
type ExecuteCommandRequest struct {
	ActorRequestMixIn
	Text   string
	Source string
}

type ExecuteCommandResponse struct {
	ActorResponseMixIn
	Action Action
	Result BridgeResult
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
