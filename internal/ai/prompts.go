package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	TypeCaption       = "caption"
	TypeHashtag       = "hashtag"
	TypeWorkoutPlan   = "workout_plan"
	TypeGenerateRisks = "generate_risks"
	TypeGenerateTasks = "generate_tasks"
)

// Request is a generation request as received from the client.
type Request struct {
	Type    string
	Prompt  string
	Model   string
	Context map[string]any
}

// Build turns a request into a provider prompt and the item type reported
// back to the client.
func Build(req Request) (Prompt, string) {
	p := Prompt{Model: req.Model, Temperature: DefaultTemperature}
	if p.Model == "" {
		p.Model = DefaultModel
	}

	switch req.Type {
	case TypeCaption:
		p.System = "You are a professional fitness content creator. " +
			"Generate engaging, authentic, and inspiring social media captions " +
			"for fitness and wellness content. Keep captions concise (2-4 sentences) " +
			"and include relevant emojis where appropriate."
		p.User = fmt.Sprintf("Create a %s fitness caption about: %s\n\n"+
			"The caption should be inspiring, relatable, and encourage action.",
			contextValue(req.Context, "tone", "motivational"), req.Prompt)
		p.MaxTokens = 200
		return p, "fitness_caption"

	case TypeHashtag:
		p.System = "You are a social media growth expert. " +
			"Generate highly relevant, trending hashtags that will maximize reach and engagement. " +
			"Focus on a mix of broad and niche-specific tags."
		p.User = fmt.Sprintf("Generate 15 effective hashtags for this %s post:\n\n%s\n\n"+
			"Return only the hashtags separated by spaces, starting with #.",
			contextValue(req.Context, "niche", "fitness"), req.Prompt)
		p.MaxTokens = 150
		return p, "hashtags"

	case TypeWorkoutPlan:
		p.System = "You are a certified personal trainer with expertise in creating " +
			"safe, effective workout programs. Provide structured workout plans " +
			"with exercises, sets, reps, and rest periods."
		p.User = fmt.Sprintf("Create a %s %s workout plan for someone who wants to %s.\n\n"+
			"Include:\n- Warm-up exercises\n- Main workout with sets/reps/rest\n"+
			"- Cool-down/stretching\n- Safety tips",
			contextValue(req.Context, "duration", "30 minutes"),
			contextValue(req.Context, "level", "intermediate"), req.Prompt)
		p.MaxTokens = 800
		return p, "workout_plan"

	case TypeGenerateRisks:
		p.System = "You are a project management expert. Analyze projects and identify " +
			"potential risks with their probability, impact, and mitigation strategies. " +
			"Return your response as a JSON array of risk objects."
		p.User = "Analyze this project and identify 3-5 key risks:\n\n" + req.Prompt + "\n\n" +
			"For each risk, provide:\n" +
			"- title: Brief risk title\n" +
			"- description: Detailed risk description\n" +
			"- severity: low, medium, high, or critical\n" +
			"- probability: low, medium, or high\n" +
			"- impact: low, medium, high, or critical\n" +
			"- mitigation_plan: How to mitigate this risk\n\n" +
			"Format as JSON array."
		p.MaxTokens = 1000
		return p, "project_risks"

	case TypeGenerateTasks:
		p.System = "You are a project management expert. Break down projects into " +
			"actionable tasks with priorities and realistic timelines. " +
			"Return response as JSON array of task objects."
		p.User = fmt.Sprintf("Break down this project goal into 4-7 specific tasks:\n\n"+
			"Goal: %s\nTimeframe: %s\n\n"+
			"For each task provide:\n"+
			"- title: Task name\n"+
			"- description: What needs to be done\n"+
			"- priority: low, medium, high, or urgent\n"+
			"- estimated_days: Number of days to complete\n\n"+
			"Format as JSON array.",
			req.Prompt, contextValue(req.Context, "timeframe", "2 weeks"))
		p.MaxTokens = 1000
		return p, "task_breakdown"
	}

	p.System = "You are a helpful AI assistant specializing in fitness, wellness, " +
		"and project management. Provide accurate, actionable, and inspiring content."
	p.User = req.Prompt
	p.MaxTokens = 800
	return p, req.Type
}

func contextValue(ctx map[string]any, key, fallback string) string {
	if raw, ok := ctx[key]; ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

// Items shapes completion content into response items. Risk and task
// generation return one item per element when the model produced a JSON
// array of objects; everything else is a single {type, content} item.
func Items(requestType, itemType, content string) []map[string]any {
	if requestType == TypeGenerateRisks || requestType == TypeGenerateTasks {
		if items, ok := parseObjectArray(content); ok {
			return items
		}
	}
	return []map[string]any{{"type": itemType, "content": content}}
}

func parseObjectArray(content string) ([]map[string]any, bool) {
	body := stripFence(strings.TrimSpace(content))
	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(body[start:end+1]), &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return items, true
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
