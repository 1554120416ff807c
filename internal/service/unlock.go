package service

import "github.com/stemsi/guidedwork-backend/internal/model"

// UnlockedQuestions lists, in question order, the questions a student may
// answer: those without dependencies, plus those whose every dependency has a
// complete answer. progress may be nil.
func UnlockedQuestions(a *model.Assignment, progress *model.StudentProgress) []string {
	out := []string{}
	for _, q := range a.Questions {
		open := true
		for _, dep := range q.DependsOn {
			if !progress.IsComplete(dep) {
				open = false
				break
			}
		}
		if open {
			out = append(out, q.ID)
		}
	}
	return out
}

// DependencyMap indexes each question's prerequisites by question id.
func DependencyMap(a *model.Assignment) map[string]model.DependencyInfo {
	m := make(map[string]model.DependencyInfo, len(a.Questions))
	for _, q := range a.Questions {
		deps := q.DependsOn
		if deps == nil {
			deps = []string{}
		}
		m[q.ID] = model.DependencyInfo{DependsOn: deps, RequiredForNext: q.RequiredForNext}
	}
	return m
}

// sanitizeDependencies rewrites dependsOn lists so each references only
// questions with a strictly smaller number, without duplicates.
func sanitizeDependencies(questions []model.Question) {
	numberOf := make(map[string]int, len(questions))
	for _, q := range questions {
		if _, dup := numberOf[q.ID]; !dup {
			numberOf[q.ID] = q.Number
		}
	}
	for i := range questions {
		q := &questions[i]
		kept := make([]string, 0, len(q.DependsOn))
		seen := make(map[string]bool, len(q.DependsOn))
		for _, dep := range q.DependsOn {
			n, ok := numberOf[dep]
			if !ok || n >= q.Number || seen[dep] {
				continue
			}
			seen[dep] = true
			kept = append(kept, dep)
		}
		q.DependsOn = kept
	}
}
