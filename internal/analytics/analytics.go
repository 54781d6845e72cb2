// Package analytics aggregates a user's tasks, risks and AI usage into the
// dashboard report. Everything here is pure: callers load the rows.
package analytics

import (
	"fmt"
	"math"
	"time"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

const (
	day  = 24 * time.Hour
	week = 7 * day

	burndownDays  = 14
	velocityWeeks = 4
	historyWeeks  = 6

	// maxRiskWeight is the highest probability weight times the highest impact weight.
	maxRiskWeight = 3 * 4
)

type Totals struct {
	TotalTasks      int     `json:"total_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	TotalRisks      int     `json:"total_risks"`
	OpenRisks       int     `json:"open_risks"`
	AIRequestsCount int     `json:"ai_requests_count"`
	CompletionRate  float64 `json:"completion_rate"`
	Velocity        float64 `json:"velocity"`
	AverageLeadTime float64 `json:"average_lead_time"`
	RiskScore       float64 `json:"risk_score"`
}

type BurndownPoint struct {
	Date           time.Time `json:"date"`
	RemainingTasks int       `json:"remaining_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
}

type Burndown struct {
	DataPoints []BurndownPoint `json:"data_points"`
}

type RiskDistribution struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

type VelocityPoint struct {
	Week           string  `json:"week"`
	TasksCompleted int     `json:"tasks_completed"`
	Average        float64 `json:"average"`
}

// Report is the body of GET /api/v1/analytics.
type Report struct {
	Totals           Totals           `json:"totals"`
	Burndown         Burndown         `json:"burndown"`
	RiskDistribution RiskDistribution `json:"risk_distribution"`
	VelocityData     []VelocityPoint  `json:"velocity_data"`
}

var probabilityWeights = map[domain.Probability]float64{
	domain.ProbabilityLow:    1,
	domain.ProbabilityMedium: 2,
	domain.ProbabilityHigh:   3,
}

var impactWeights = map[domain.Level]float64{
	domain.LevelLow:      1,
	domain.LevelMedium:   2,
	domain.LevelHigh:     3,
	domain.LevelCritical: 4,
}

// Compute builds the report as of now. Rates and scores are rounded to two
// decimals only when written into the result.
func Compute(now time.Time, tasks []store.Task, risks []store.Risk, aiRequests int) Report {
	now = now.UTC()

	completed := 0
	for _, task := range tasks {
		if isDone(task) {
			completed++
		}
	}

	openRisks := 0
	for _, risk := range risks {
		if risk.Status == domain.RiskOpen {
			openRisks++
		}
	}

	velocity := Velocity(now, tasks)

	return Report{
		Totals: Totals{
			TotalTasks:      len(tasks),
			CompletedTasks:  completed,
			TotalRisks:      len(risks),
			OpenRisks:       openRisks,
			AIRequestsCount: aiRequests,
			CompletionRate:  round2(CompletionRate(len(tasks), completed)),
			Velocity:        round2(velocity),
			AverageLeadTime: round2(AverageLeadTime(tasks)),
			RiskScore:       round2(RiskScore(risks)),
		},
		Burndown:         Burndown{DataPoints: BurndownPoints(now, len(tasks), completed)},
		RiskDistribution: Distribution(risks),
		VelocityData:     VelocityHistory(now, tasks, velocity),
	}
}

func isDone(task store.Task) bool {
	return task.Status == domain.TaskDone
}

func CompletionRate(total, completed int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// Velocity is the number of tasks finished in the last four weeks, per week.
// A done task's updated_at stands in for its completion time.
func Velocity(now time.Time, tasks []store.Task) float64 {
	since := now.Add(-velocityWeeks * week)
	recent := 0
	for _, task := range tasks {
		if isDone(task) && task.UpdatedAt != nil && !task.UpdatedAt.Before(since) {
			recent++
		}
	}
	return float64(recent) / velocityWeeks
}

// AverageLeadTime is the mean number of days between creation and the last
// update over done tasks.
func AverageLeadTime(tasks []store.Task) float64 {
	var sum float64
	n := 0
	for _, task := range tasks {
		if !isDone(task) || task.CreatedAt.IsZero() || task.UpdatedAt == nil {
			continue
		}
		sum += task.UpdatedAt.Sub(task.CreatedAt).Seconds() / day.Seconds()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RiskScore is the mean probability x impact weight of open risks scaled to
// 0..100. Values outside the known sets weigh as medium.
func RiskScore(risks []store.Risk) float64 {
	var sum float64
	n := 0
	for _, risk := range risks {
		if risk.Status != domain.RiskOpen {
			continue
		}
		sum += weight(probabilityWeights, risk.Probability) * weight(impactWeights, risk.Impact)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / maxRiskWeight * 100
}

func weight[K comparable](weights map[K]float64, key K) float64 {
	if w, ok := weights[key]; ok {
		return w
	}
	return 2
}

// BurndownPoints interpolates linearly from total down to total-completed over
// the last fourteen days. It is not based on historical state.
func BurndownPoints(now time.Time, total, completed int) []BurndownPoint {
	points := make([]BurndownPoint, 0, burndownDays+1)
	perDay := float64(completed) / burndownDays
	for i := burndownDays; i >= 0; i-- {
		remaining := 0
		if total > 0 {
			remaining = max(0, total-int(math.Floor(float64(burndownDays-i)*perDay)))
		}
		points = append(points, BurndownPoint{
			Date:           now.Add(-time.Duration(i) * day),
			RemainingTasks: remaining,
			CompletedTasks: total - remaining,
		})
	}
	return points
}

// Distribution counts every risk by impact regardless of status.
func Distribution(risks []store.Risk) RiskDistribution {
	var dist RiskDistribution
	for _, risk := range risks {
		switch risk.Impact {
		case domain.LevelLow:
			dist.Low++
		case domain.LevelMedium:
			dist.Medium++
		case domain.LevelHigh:
			dist.High++
		case domain.LevelCritical:
			dist.Critical++
		}
	}
	return dist
}

// VelocityHistory buckets done tasks into the six one-week windows preceding
// now, oldest first. Every bucket carries the same overall average.
func VelocityHistory(now time.Time, tasks []store.Task, velocity float64) []VelocityPoint {
	average := round2(velocity)
	points := make([]VelocityPoint, 0, historyWeeks)
	for weekNum := historyWeeks; weekNum >= 1; weekNum-- {
		start := now.Add(-time.Duration(weekNum) * week)
		end := start.Add(week)
		count := 0
		for _, task := range tasks {
			if !isDone(task) || task.UpdatedAt == nil {
				continue
			}
			if !task.UpdatedAt.Before(start) && task.UpdatedAt.Before(end) {
				count++
			}
		}
		points = append(points, VelocityPoint{
			Week:           fmt.Sprintf("Week %d", historyWeeks+1-weekNum),
			TasksCompleted: count,
			Average:        average,
		})
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
