package docker

import (
	"context"
	"iter"
	"net/http"
	"net/url"
)

// Query parameters of a create request.
type CreateContainerOptions struct {
	Name     string `url:"name,omitempty"`     // Container name. Empty lets the Engine pick one.
	Platform string `url:"platform,omitempty"` // Platform of the image, e.g. "linux/arm64".
}

// Body of a create request.
//
// Only the fields nova sets are modeled; the Engine fills in defaults for
// the rest.
type CreateContainerConfig struct {
	Image      string            `json:"Image"`
	Tty        bool              `json:"Tty"`
	Labels     map[string]string `json:"Labels"`
	Entrypoint []string          `json:"Entrypoint"`
	Cmd        []string          `json:"Cmd"`
}

// Returned by a successful create request.
type ContainerCreateResponse struct {
	ID       string   `json:"Id"`
	Warnings []string `json:"Warnings"`
}

// Query parameters of a start request.
type StartContainerOptions struct {
	DetachKeys string `url:"detachKeys,omitempty"`
}

// Query parameters of a wait request.
type WaitContainerOptions struct {
	Condition string `url:"condition,omitempty"` // "not-running" (default), "next-exit" or "removed".
}

// Condition used when a wait request carries no options.
const WaitConditionNotRunning = "not-running"

// One record of a wait response.
type ContainerWaitResponse struct {
	StatusCode int64                   `json:"StatusCode"`
	Error      *ContainerWaitExitError `json:"Error,omitempty"`
}

// Error annotation of a wait record.
type ContainerWaitExitError struct {
	Message *string `json:"Message,omitempty"`
}

// Query parameters of a logs request.
type LogsOptions struct {
	Follow     bool   `url:"follow,omitempty"`
	Stdout     bool   `url:"stdout,omitempty"`
	Stderr     bool   `url:"stderr,omitempty"`
	Since      int64  `url:"since,omitempty"`
	Timestamps bool   `url:"timestamps,omitempty"`
	Tail       string `url:"tail,omitempty"`
}

// Query parameters of a remove request.
type RemoveContainerOptions struct {
	Force   bool `url:"force,omitempty"`
	Volumes bool `url:"v,omitempty"`
}

// Creates a container.
//
// Fails with a [*ServerError] when the Engine rejects the request, e.g.
// 404 for a missing image or 409 for a name already in use.
func (d *Docker) CreateContainer(ctx context.Context, options *CreateContainerOptions, config CreateContainerConfig) (ContainerCreateResponse, error) {
	body, err := serializePayload(config)
	if err != nil {
		return ContainerCreateResponse{}, err
	}

	req, err := d.buildRequest(ctx, http.MethodPost, "/containers/create", options, body)
	if err != nil {
		return ContainerCreateResponse{}, err
	}

	return processIntoValue[ContainerCreateResponse](d, req)
}

// Starts a created container.
func (d *Docker) StartContainer(ctx context.Context, id string, options *StartContainerOptions) error {
	req, err := d.buildRequest(ctx, http.MethodPost, containerPath(id, "start"), options, nil)
	if err != nil {
		return err
	}
	return d.processIntoUnit(req)
}

// Waits for a container to reach a condition.
//
// The request is sent when the sequence is iterated. With nil options the
// condition is "not-running". A record with a nonzero status code is
// yielded as a [*WaitError] carrying the code and the runtime's message,
// if any; other records are yielded unchanged.
func (d *Docker) WaitContainer(ctx context.Context, id string, options *WaitContainerOptions) iter.Seq2[ContainerWaitResponse, error] {
	if options == nil {
		options = &WaitContainerOptions{Condition: WaitConditionNotRunning}
	}

	req, err := d.buildRequest(ctx, http.MethodPost, containerPath(id, "wait"), options, nil)
	if err != nil {
		return errSeq[ContainerWaitResponse](err)
	}

	return func(yield func(ContainerWaitResponse, error) bool) {
		for res, err := range processIntoStream[ContainerWaitResponse](d, req) {
			if err == nil && res.StatusCode != 0 {
				err = waitError(res)
			}
			if !yield(res, err) {
				return
			}
		}
	}
}

// Translates a nonzero wait record into a [*WaitError].
func waitError(res ContainerWaitResponse) *WaitError {
	e := &WaitError{Code: res.StatusCode}
	if res.Error != nil && res.Error.Message != nil {
		e.Message = *res.Error.Message
	}
	return e
}

// Streams the output of a container.
//
// The request is sent when the sequence is iterated. With nil options both
// stdout and stderr are requested without following. Output of containers
// created with a TTY is unframed and arrives as [Console] chunks.
func (d *Docker) ContainerLogs(ctx context.Context, id string, options *LogsOptions) iter.Seq2[LogOutput, error] {
	if options == nil {
		options = &LogsOptions{Stdout: true, Stderr: true}
	}

	req, err := d.buildRequest(ctx, http.MethodGet, containerPath(id, "logs"), options, nil)
	if err != nil {
		return errSeq[LogOutput](err)
	}

	return d.processIntoLogs(req)
}

// Removes a container.
func (d *Docker) RemoveContainer(ctx context.Context, id string, options *RemoveContainerOptions) error {
	req, err := d.buildRequest(ctx, http.MethodDelete, containerPath(id, ""), options, nil)
	if err != nil {
		return err
	}
	return d.processIntoUnit(req)
}

// Returns "/containers/<id>[/<action>]" with the ID escaped.
func containerPath(id, action string) string {
	p := "/containers/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}
