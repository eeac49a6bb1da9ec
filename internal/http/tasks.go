package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/libraryhub/internal/backup"
	"github.com/mrlokans/libraryhub/internal/scheduler"
	"github.com/mrlokans/libraryhub/internal/tasks"
)

// TasksController handles task queue, backup and scheduler endpoints.
// Any collaborator may be nil; the matching endpoints then answer 503.
type TasksController struct {
	client    *tasks.Client
	backups   *backup.Service
	scheduler *scheduler.Scheduler
}

func NewTasksController(client *tasks.Client, backups *backup.Service, sched *scheduler.Scheduler) *TasksController {
	return &TasksController{client: client, backups: backups, scheduler: sched}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var taskTypes = []TaskTypeInfo{
	{Type: "overdue_reminders", Description: "Send one reminder per student with overdue books"},
	{Type: "resync_inventory", Description: "Recompute available copies for every book"},
	{Type: "snapshot_backup", Description: "Export the store and write it to backup storage"},
	{Type: "cleanup_audit_events", Description: "Delete audit events past retention"},
}

func newTask(taskType string) (backlite.Task, error) {
	switch taskType {
	case "overdue_reminders":
		return tasks.OverdueRemindersTask{}, nil
	case "resync_inventory":
		return tasks.ResyncInventoryTask{}, nil
	case "snapshot_backup":
		return tasks.SnapshotBackupTask{Reason: "api"}, nil
	case "cleanup_audit_events":
		return tasks.CleanupAuditEventsTask{}, nil
	}
	return nil, fmt.Errorf("unknown task type: %s", taskType)
}

func (tc *TasksController) requireQueue(c *gin.Context) bool {
	if tc.client == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return false
	}
	return true
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": taskTypes})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	if !tc.requireQueue(c) {
		return
	}
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		c.JSON(http.StatusNotFound, gin.H{"id": taskID, "status": tasks.StatusName(status)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": taskID, "status": tasks.StatusName(status)})
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	if !tc.requireQueue(c) {
		return
	}
	taskType := c.Param("type")
	task, err := newTask(taskType)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	id, err := tc.client.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}
	respondAccepted(c, "task enqueued", gin.H{"task_id": id, "type": taskType})
}

// CreateBackup handles POST /api/backups. With a task queue the backup runs
// in the background; without one it runs inline and returns the result.
func (tc *TasksController) CreateBackup(c *gin.Context) {
	if tc.client != nil {
		id, err := tc.client.Enqueue(tasks.SnapshotBackupTask{Reason: "api"})
		if err != nil {
			respondInternalError(c, err, "enqueue backup")
			return
		}
		respondAccepted(c, "backup enqueued", gin.H{"task_id": id})
		return
	}
	if tc.backups == nil {
		respondError(c, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	result, err := tc.backups.Run(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "backup")
		return
	}
	respondCreated(c, result)
}

// ListBackups handles GET /api/backups
func (tc *TasksController) ListBackups(c *gin.Context) {
	if tc.backups == nil {
		respondError(c, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	files, err := tc.backups.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list backups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": files, "count": len(files)})
}

// ListJobs handles GET /api/scheduler/jobs
func (tc *TasksController) ListJobs(c *gin.Context) {
	if tc.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "jobs": []scheduler.JobStatus{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running": tc.scheduler.IsRunning(),
		"jobs":    tc.scheduler.Status(),
	})
}

// RunJob handles POST /api/scheduler/jobs/:name/run
func (tc *TasksController) RunJob(c *gin.Context) {
	if tc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "scheduler is disabled")
		return
	}
	id, err := tc.scheduler.RunNow(c.Param("name"))
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
			return
		}
		respondInternalError(c, err, "run job")
		return
	}
	respondAccepted(c, "job enqueued", gin.H{"task_id": id, "job": c.Param("name")})
}
