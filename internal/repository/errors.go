package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反（同時作成の競合など）
	ErrConflict = errors.New("conflict")
)
