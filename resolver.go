package main

import (
	"context"
	"errors"
	"strings"
)

// ResolveTarget walks an optional slash-separated remote path component by
// component, creating folders as needed, and returns the id of the final
// component. An empty target resolves to the root id 0.
//
// Resolution is idempotent: an existing folder along the path is reused
// rather than treated as a clash. A clash with a file makes the target
// unreachable and aborts with NameClashWithFileError.
func ResolveTarget(ctx context.Context, client FileClient, target string) (int64, error) {
	current := int64(0)
	if target == "" {
		return current, nil
	}

	for _, component := range strings.Split(strings.Trim(target, "/"), "/") {
		if component == "" {
			continue
		}

		folder, err := client.CreateFolder(ctx, component, current)
		if err == nil {
			current = folder.ID
			continue
		}

		var clash *NameClashError
		if !errors.As(err, &clash) {
			return 0, err
		}

		existing, found, lookupErr := findChild(ctx, client, current, component)
		if lookupErr != nil {
			return 0, lookupErr
		}
		if !found || !existing.Dir {
			return 0, &NameClashWithFileError{Name: component, ParentID: current}
		}
		current = existing.ID
	}

	return current, nil
}

// findChild looks up an immediate child of parentID by name.
func findChild(ctx context.Context, client FileClient, parentID int64, name string) (Entry, bool, error) {
	children, err := client.ListChildren(ctx, parentID)
	if err != nil {
		return Entry{}, false, err
	}

	for _, child := range children {
		if child.Name == name {
			return child, true, nil
		}
	}

	return Entry{}, false, nil
}
