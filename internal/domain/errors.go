package domain

import "errors"

var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrPackNotFound    = errors.New("pack not found")
	ErrRunNotFound     = errors.New("run not found")
	ErrUserNotFound    = errors.New("user not found")
)
