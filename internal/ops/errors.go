package ops

import "filectl/internal/engineerr"

func errMissingCollaborator(op, format string, args ...any) error {
	return engineerr.Newf(engineerr.InvalidRequest, op, format, args...)
}
