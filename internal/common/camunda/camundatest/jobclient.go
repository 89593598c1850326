// Package camundatest provides an in-memory Zeebe job client for handler tests.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Gateway records the job commands it receives. Only the job completion RPCs
// are implemented; any other call panics on the nil embedded client.
type Gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
	err       error
}

func (g *Gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, in)
	return &pb.CompleteJobResponse{}, g.err
}

func (g *Gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, g.err
}

func (g *Gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, g.err
}

// JobClient implements worker.JobClient on top of a recording Gateway.
type JobClient struct {
	Gateway *Gateway
}

func NewJobClient() *JobClient {
	return &JobClient{Gateway: &Gateway{}}
}

// FailSends makes every subsequent command return err from the gateway.
func (c *JobClient) FailSends(err error) {
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	c.Gateway.err = err
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, noRetry)
}

func (c *JobClient) Completed() []*pb.CompleteJobRequest {
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), c.Gateway.completed...)
}

func (c *JobClient) Failed() []*pb.FailJobRequest {
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), c.Gateway.failed...)
}

func (c *JobClient) Thrown() []*pb.ThrowErrorRequest {
	c.Gateway.mu.Lock()
	defer c.Gateway.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), c.Gateway.thrown...)
}

// Variables decodes the JSON variable document of a recorded command.
func Variables(doc string) (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	if doc == "" {
		return vars, nil
	}
	err := json.Unmarshal([]byte(doc), &vars)
	return vars, err
}

// NewJob builds an activated job whose variables are the JSON form of variables.
// A string or []byte is used as the raw variable document.
func NewJob(key int64, taskType string, variables interface{}) entities.Job {
	var doc string
	switch v := variables.(type) {
	case string:
		doc = v
	case []byte:
		doc = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		doc = string(b)
	}

	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                      key,
			Type:                     taskType,
			ProcessInstanceKey:       key * 10,
			BpmnProcessId:            "actuator-selection",
			ProcessDefinitionVersion: 1,
			ProcessDefinitionKey:     1,
			ElementId:                taskType,
			ElementInstanceKey:       key * 100,
			CustomHeaders:            "{}",
			Worker:                   "test-worker",
			Retries:                  3,
			Deadline:                 0,
			Variables:                doc,
		},
	}
}
