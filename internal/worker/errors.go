package worker

import "errors"

var errJobPanicked = errors.New("job panicked")
