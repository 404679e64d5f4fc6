package model

import "errors"

var ErrUnknownRole = errors.New("unknown role")
