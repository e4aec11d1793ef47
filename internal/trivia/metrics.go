package trivia

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quizSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "quiz_selections_total",
		Help:      "Quiz next-question requests by outcome (served or exhausted).",
	}, []string{"outcome"})

	questionMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "question_mutations_total",
		Help:      "Successful question creates and deletes.",
	}, []string{"op"})
)
