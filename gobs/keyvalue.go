// Copyright (c) 2023 BVK Chaitanya

package gobs

type KeyValue struct {
	Key   string
	Value []byte
}
