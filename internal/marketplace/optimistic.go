package marketplace

import "context"

// Optimistic applies a local mutation before the remote call confirms it.
// snapshot captures whatever revert needs, apply mutates local state, and
// confirm performs the remote call. When confirm fails, revert receives the
// snapshot and the error is returned unchanged. No retry is attempted.
func Optimistic[S, R any](
	ctx context.Context,
	snapshot func() S,
	apply func(),
	confirm func(context.Context) (R, error),
	revert func(S),
) (R, error) {
	saved := snapshot()
	apply()
	res, err := confirm(ctx)
	if err != nil {
		revert(saved)
		var zero R
		return zero, err
	}
	return res, nil
}
