package core

import "math"

// ProjectWithProgress is the derived, non-persisted view of a project carrying
// task-completion figures. Progress is 0-100.
type ProjectWithProgress struct {
	Project
	Progress           int `json:"progress"`
	TaskCount          int `json:"taskCount"`
	CompletedTaskCount int `json:"completedTaskCount"`
}

// ComputeProgress derives the completion view for a single project from the
// full task collection. Tasks referencing other projects are ignored.
func ComputeProgress(p Project, tasks []Task) ProjectWithProgress {
	total, completed := 0, 0
	for _, t := range tasks {
		if t.ProjectID != p.ID {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
	}
	return ProjectWithProgress{
		Project:            p,
		Progress:           progressPercent(completed, total),
		TaskCount:          total,
		CompletedTaskCount: completed,
	}
}

// GroupTasksByProject buckets tasks by project identifier in one pass, so a
// fleet of projects can be decorated without rescanning the task list per
// project.
func GroupTasksByProject(tasks []Task) map[string][]Task {
	byProject := make(map[string][]Task)
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}
	return byProject
}

// progressPercent rounds half-up; a project with zero tasks reports 0.
func progressPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
