package usecase

import "errors"

var errSourceMissing = errors.New("data source is not configured")
