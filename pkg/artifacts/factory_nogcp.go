//go:build !gcp

package artifacts

import (
	"context"
	"fmt"
)

func newGCSStore(context.Context, Config) (Store, error) {
	return nil, fmt.Errorf("GCS archives are not enabled in this build (use -tags gcp)")
}
