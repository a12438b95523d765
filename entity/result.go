package entity

import "time"

// ProcessStatus is the terminal (or in-flight) state of one process run.
type ProcessStatus string

const (
	StatusReceived       ProcessStatus = "RECEIVED"
	StatusFiltering      ProcessStatus = "FILTERING"
	StatusFiltered       ProcessStatus = "FILTERED"
	StatusTransforming   ProcessStatus = "TRANSFORMING"
	StatusTransformError ProcessStatus = "TRANSFORM_ERROR"
	StatusDispatching    ProcessStatus = "DISPATCHING"
	StatusSuccess        ProcessStatus = "SUCCESS"
	StatusError          ProcessStatus = "ERROR"
)

// DispatchResult captures the outcome of sending one message to one
// destination. Failures are always captured here, never propagated as errors
// to the process run.
type DispatchResult struct {
	// Destination is the index into the channel's destination list.
	Destination int `json:"destination"`

	Success bool `json:"success"`

	// ResponseCode holds the HTTP status code for HTTP destinations.
	ResponseCode int `json:"responseCode,omitempty"`

	// BytesSent holds the number of payload bytes written for TCP destinations.
	BytesSent int `json:"bytesSent,omitempty"`

	// Error holds the failure detail when Success is false.
	Error string `json:"error,omitempty"`
}

// ProcessResult is the definite terminal outcome of one end-to-end pipeline
// run for a single message. Every admitted run yields exactly one.
type ProcessResult struct {
	// ProcessId is a fresh uuid per run, for correlation only.
	ProcessId string `json:"processId"`

	ChannelId string        `json:"channelId"`
	Status    ProcessStatus `json:"status"`

	// Original is the message as admitted.
	Original []byte `json:"original,omitempty"`

	// Processed is the message after the filter and transformer chains, set
	// once the run reaches dispatch.
	Processed []byte `json:"processed,omitempty"`

	// FilterReason is set when Status is FILTERED.
	FilterReason string `json:"filterReason,omitempty"`

	// TransformError is set when Status is TRANSFORM_ERROR.
	TransformError string `json:"transformError,omitempty"`

	// Error is set when an unexpected fault ends the run with Status ERROR.
	Error string `json:"error,omitempty"`

	// Warnings collects non-fatal notes from the run, e.g. a script
	// transformer passing the original message through on no output.
	Warnings []string `json:"warnings,omitempty"`

	// DispatchResults holds one entry per destination, in destination order,
	// regardless of individual outcomes.
	DispatchResults []DispatchResult `json:"dispatchResults,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}
