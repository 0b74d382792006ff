// Package tasks enqueues HTTP tasks onto a Cloud Tasks queue targeting this
// service's own /tasks/* endpoints, authenticated with an OIDC token
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/logger"
)

// Options configures the Enqueuer
type Options struct {
	Project  string
	Location string
	Queue    string

	// ServiceURL is the base URL of the worker service; relative task URLs
	// append to it. Audience defaults to ServiceURL
	ServiceURL          string
	ServiceAccountEmail string
	Audience            string

	ClientOptions []option.ClientOption
}

// Enqueuer creates HTTP tasks
type Enqueuer struct {
	client *cloudtasks.Client
	opts   Options
	log    logger.Logger
}

// New validates the options and opens the Cloud Tasks client
func New(ctx context.Context, o Options) (*Enqueuer, error) {
	var missing []string
	if o.Project == "" {
		missing = append(missing, "project")
	}
	if o.Queue == "" {
		missing = append(missing, "queue")
	}
	if o.ServiceURL == "" {
		missing = append(missing, "service url")
	}
	if o.ServiceAccountEmail == "" {
		missing = append(missing, "service account email")
	}
	if len(missing) > 0 {
		return nil, perr.InvalidArgf("cloud tasks config incomplete: %s", strings.Join(missing, ", "))
	}
	if o.Location == "" {
		o.Location = "us-central1"
	}
	if o.Audience == "" {
		o.Audience = o.ServiceURL
	}

	client, err := cloudtasks.NewClient(ctx, o.ClientOptions...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "cloud tasks client init failed")
	}
	return &Enqueuer{client: client, opts: o, log: *logger.Named("tasks")}, nil
}

// Close releases the underlying client
func (e *Enqueuer) Close() error { return e.client.Close() }

func (e *Enqueuer) queuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s",
		e.opts.Project, e.opts.Location, e.opts.Queue)
}

// Enqueue creates a POST task against relativeURL with a JSON payload.
// A non-empty taskID makes the enqueue idempotent: Cloud Tasks rejects the
// duplicate and the rejection is treated as success
func (e *Enqueuer) Enqueue(ctx context.Context, relativeURL string, payload any, taskID string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "task payload marshal failed")
	}

	target := strings.TrimRight(e.opts.ServiceURL, "/") + "/" + strings.TrimLeft(relativeURL, "/")
	task := &taskspb.Task{
		MessageType: &taskspb.Task_HttpRequest{
			HttpRequest: &taskspb.HttpRequest{
				HttpMethod: taskspb.HttpMethod_POST,
				Url:        target,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       body,
				AuthorizationHeader: &taskspb.HttpRequest_OidcToken{
					OidcToken: &taskspb.OidcToken{
						ServiceAccountEmail: e.opts.ServiceAccountEmail,
						Audience:            e.opts.Audience,
					},
				},
			},
		},
	}
	if taskID != "" {
		task.Name = e.queuePath() + "/tasks/" + taskID
	}

	created, err := e.client.CreateTask(ctx, &taskspb.CreateTaskRequest{
		Parent: e.queuePath(),
		Task:   task,
	})
	if err != nil {
		if taskID != "" && status.Code(err) == codes.AlreadyExists {
			e.log.Info().Str("task_id", taskID).Msg("task already enqueued")
			return task.Name, nil
		}
		return "", perr.Wrapf(err, perr.ErrorCodeUpstream, "cloud tasks create failed for %s", relativeURL)
	}
	e.log.Info().Str("task", created.GetName()).Str("url", target).Msg("task enqueued")
	return created.GetName(), nil
}
