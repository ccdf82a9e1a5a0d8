// common.go
//
// Shared request parsing helpers for handlers
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of API-Estancia2.
// API-Estancia2 is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// API-Estancia2 is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with API-Estancia2.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/gofiber/fiber/v2"
)

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, types.InvalidArgument(fmt.Sprintf("Invalid %s: %q.", name, raw), "request.param")
	}
	return uint(id), nil
}

// parseBody decodes the request body, reporting malformed input as 400
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return types.InvalidArgument("Malformed request body.", "request.body").WithCause(err)
	}
	return nil
}

// isMultipart reports whether the request carries a multipart form
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// formField returns a form value, or nil when the field was not sent at all
func formField(c *fiber.Ctx, names ...string) *string {
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil
		}
		for _, name := range names {
			if v, ok := form.Value[name]; ok && len(v) > 0 {
				return &v[0]
			}
		}
		return nil
	}
	args := c.Request().PostArgs()
	for _, name := range names {
		if args.Has(name) {
			v := string(args.Peek(name))
			return &v
		}
	}
	return nil
}

// firstNonNil picks the first supplied value
func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
