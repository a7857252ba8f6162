package nic

import (
	"errors"
)

// ErrUnknownField indicates that a field outside of the NIC record schema was referenced.
var ErrUnknownField = errors.New("No such NIC field")

// ErrDuplicateName indicates that a NIC name is missing or already used in the list.
var ErrDuplicateName = errors.New("Duplicate NIC name")

// ErrNotFound indicates that no NIC matches the given name or index.
var ErrNotFound = errors.New("NIC not found")

// ErrImmutableName indicates an attempt to rename a NIC that is already part of a list.
var ErrImmutableName = errors.New("NIC name can't be changed")
