package genealogy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-viper/mapstructure/v2"
	apperrors "github.com/olgasafonova/gramps-mcp-server/internal/errors"
	"github.com/olgasafonova/gramps-mcp-server/internal/format"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
)

// DefaultGenerations is the report depth used when max_generations is unset.
const DefaultGenerations = 5

// Gramps report ids.
const (
	descendantReport = "descend_report"
	ancestorReport   = "ancestor_report"
)

// TreeStats renders the tree's name, description and usage statistics.
func (s *Service) TreeStats(ctx context.Context, _ TreeStatsArgs) (string, error) {
	const op = "tree information retrieval"
	resp, err := s.api.Call(ctx, gramps.Tree, nil, nil)
	if err != nil {
		return "", s.fail(op, err)
	}
	tree := gramps.AsObject(resp)
	if tree == nil {
		tree = gramps.Object{}
	}
	return format.TreeInfo(tree), nil
}

// GetDescendants renders the descendant report of a person.
func (s *Service) GetDescendants(ctx context.Context, args LineageArgs) (string, error) {
	return s.lineage(ctx, "descendants search", descendantReport, "gen", args)
}

// GetAncestors renders the ancestor report of a person.
func (s *Service) GetAncestors(ctx context.Context, args LineageArgs) (string, error) {
	return s.lineage(ctx, "ancestors search", ancestorReport, "maxgen", args)
}

// reportJob is the answer to a report generation request: either the file
// name of a finished report or the task producing it.
type reportJob struct {
	FileName string `mapstructure:"file_name"`
	Task     struct {
		ID string `mapstructure:"id"`
	} `mapstructure:"task"`
}

// taskStatus is the state of a background task.
type taskStatus struct {
	State        string `mapstructure:"state"`
	Info         any    `mapstructure:"info"`
	Result       any    `mapstructure:"result"`
	ResultObject any    `mapstructure:"result_object"`
}

// errTaskPending marks a poll that found the task still running.
var errTaskPending = errors.New("task pending")

func (s *Service) lineage(ctx context.Context, op, reportID, genOption string, args LineageArgs) (string, error) {
	if args.GrampsID == "" {
		return "", s.fail(op, errors.New("gramps_id is required"))
	}
	gen := args.MaxGenerations
	if gen <= 0 {
		gen = DefaultGenerations
	}

	options, err := json.Marshal(map[string]string{
		"pid":     args.GrampsID,
		"off":     "html",
		genOption: strconv.Itoa(gen),
	})
	if err != nil {
		return "", s.fail(op, err)
	}

	fileName, err := s.generateReport(ctx, reportID, string(options))
	if err != nil {
		return "", s.fail(op, err)
	}

	raw, err := s.api.GetRaw(ctx, gramps.ReportProcessed, gramps.PathParams{"report_id": reportID, "filename": fileName})
	if err != nil {
		metrics.ReportTasks.WithLabelValues(reportID, "error").Inc()
		return "", s.fail(op, err)
	}
	out, err := format.Report(string(raw))
	if err != nil {
		metrics.ReportTasks.WithLabelValues(reportID, "error").Inc()
		return "", s.fail(op, err)
	}
	metrics.ReportTasks.WithLabelValues(reportID, "success").Inc()
	return out, nil
}

// generateReport starts a report and returns the name of the produced file,
// waiting for the background task when the API answers with one.
func (s *Service) generateReport(ctx context.Context, reportID, options string) (string, error) {
	resp, err := s.api.Call(ctx, gramps.ReportGenerate, gramps.Params{"options": options}, gramps.PathParams{"report_id": reportID})
	if err != nil {
		metrics.ReportTasks.WithLabelValues(reportID, "error").Inc()
		return "", err
	}

	var job reportJob
	if obj := gramps.AsObject(resp); obj != nil {
		if err := decodeLoose(obj, &job); err != nil {
			return "", err
		}
	}
	if job.FileName != "" {
		return job.FileName, nil
	}
	if job.Task.ID == "" {
		metrics.ReportTasks.WithLabelValues(reportID, "error").Inc()
		return "", &apperrors.APIError{Message: fmt.Sprintf("Report generated but filename not found in response. Response: %v", resp)}
	}

	s.logger.Debug("Report running as task", "report", reportID, "task_id", job.Task.ID)
	result, err := s.waitForTask(ctx, reportID, job.Task.ID)
	if err != nil {
		return "", err
	}

	fileName := gramps.AsObject(result).Str("file_name")
	if fileName == "" {
		metrics.ReportTasks.WithLabelValues(reportID, "error").Inc()
		return "", &apperrors.APIError{Message: fmt.Sprintf("Task completed but filename not found in result. Result: %v", result)}
	}
	return fileName, nil
}

// waitForTask polls a task until it succeeds, fails or the poll timeout
// passes, backing off between polls.
func (s *Service) waitForTask(ctx context.Context, reportID, taskID string) (any, error) {
	poll := func() (any, error) {
		resp, err := s.api.Call(ctx, gramps.TaskStatus, nil, gramps.PathParams{"task_id": taskID})
		if err != nil {
			if apperrors.IsAPI(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, backoff.Permanent(&apperrors.APIError{Message: fmt.Sprintf("Error polling task %s: %v", taskID, err)})
		}

		var status taskStatus
		if err := decodeLoose(gramps.AsObject(resp), &status); err != nil {
			return nil, backoff.Permanent(&apperrors.APIError{Message: fmt.Sprintf("Error polling task %s: %v", taskID, err)})
		}

		switch strings.ToUpper(status.State) {
		case "SUCCESS":
			if status.ResultObject != nil {
				return status.ResultObject, nil
			}
			if status.Result != nil {
				return status.Result, nil
			}
			s.logger.Warn("Task succeeded without a result", "task_id", taskID)
			return resp, nil
		case "FAILURE", "FAILED":
			info := "Task failed"
			if status.Info != nil {
				info = fmt.Sprint(status.Info)
			}
			return nil, backoff.Permanent(&apperrors.APIError{Message: fmt.Sprintf("Task %s failed: %s", taskID, info)})
		}
		s.logger.Debug("Task still running", "task_id", taskID, "state", status.State)
		return nil, errTaskPending
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     s.poll.Initial,
		RandomizationFactor: 0,
		Multiplier:          s.poll.Multiplier,
		MaxInterval:         s.poll.Max,
	}
	result, err := backoff.Retry(ctx, poll, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(s.poll.Timeout))
	switch {
	case errors.Is(err, errTaskPending):
		metrics.ReportTasks.WithLabelValues(reportID, "timeout").Inc()
		return nil, &apperrors.APIError{Message: fmt.Sprintf("Task %s timed out after %d seconds", taskID, int(s.poll.Timeout.Seconds()))}
	case err != nil:
		metrics.ReportTasks.WithLabelValues(reportID, "failure").Inc()
		return nil, err
	}
	return result, nil
}

// RecentChanges renders the transaction history, newest first.
func (s *Service) RecentChanges(ctx context.Context, args RecentChangesArgs) (string, error) {
	const op = "recent changes retrieval"
	params := gramps.Params{}
	if err := decodeParams(args, &params); err != nil {
		return "", s.fail(op, err)
	}
	params["sort"] = "-id"

	resp, err := s.api.Call(ctx, gramps.TransactionHistory, params, nil)
	if err != nil {
		return "", s.fail(op, err)
	}
	transactions := gramps.AsObjects(resp)
	if obj := gramps.AsObject(resp); obj != nil {
		transactions = obj.Objects("data")
	}
	return s.format.RecentChanges(ctx, transactions), nil
}

// decodeLoose decodes an API object into out, converting scalar types where
// they differ, such as numeric task ids.
func decodeLoose(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// decodeParams flattens tool arguments into query parameters, using their
// json names and dropping zero values.
func decodeParams(args any, out *gramps.Params) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
