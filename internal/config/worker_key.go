package config

type WorkerKeyStruct struct {
	AutosaveAnswersQueue string
	AttemptDeadlinesSet  string
}

var WorkerKey = &WorkerKeyStruct{
	AutosaveAnswersQueue: "autosave_answers_queue",
	AttemptDeadlinesSet:  "attempt_deadlines",
}
