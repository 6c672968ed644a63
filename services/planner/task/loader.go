// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package task

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is the shared validator instance. validator.Validate caches
// struct metadata, so a single instance serves all loads.
var validate = validator.New()

// Load parses a task from YAML.
//
// The expected document shape:
//
//	name: switch
//	variables:
//	  - {name: light, domain: 2}
//	init: [0]
//	goals:
//	  - {var: 0, value: 1}
//	operators:
//	  - name: flip
//	    cost: 1
//	    preconditions: []
//	    effects: [{var: 0, value: 1}]
//
// Load runs struct-tag validation followed by Task.Validate, so a returned
// task is structurally sound.
func Load(data []byte) (*Task, error) {
	var t Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing task: %w", err)
	}
	if err := validate.Struct(&t); err != nil {
		return nil, fmt.Errorf("validating task: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validating task: %w", err)
	}
	return &t, nil
}

// LoadFile reads and parses a task from a YAML file.
func LoadFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	t, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
