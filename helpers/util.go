package helpers

import (
	"errors"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// ProductIDFromURL returns the path segment following "/product/", e.g.
// "624679" for https://www.tcgplayer.com/product/624679/
func ProductIDFromURL(url string) (string, error) {
	baseLink := strings.Split(url, "?")[0]
	rest, err := GetSplitPart(baseLink, "/product/", 1)
	if err != nil {
		return "", err
	}
	id, err := GetSplitPart(rest, "/", 0)
	if err != nil || id == "" {
		return "", errors.New("product id not found")
	}
	return id, nil
}
