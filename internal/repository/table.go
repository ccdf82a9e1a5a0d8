// table.go
//
// Generic row access for spreadsheet transfer
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

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Row is one table row keyed by column name
type Row map[string]interface{}

// TableRepository reads and writes whole tables by name for the spreadsheet transfer.
// Table and column names must come from a fixed allow-list, never from user input.
type TableRepository interface {
	Rows(ctx context.Context, table string, columns []string, orderBy string) ([]Row, error)
	Update(ctx context.Context, table string, key Row, fields Row) (found bool, err error)
	Modify(ctx context.Context, table string, key Row, columns []string, apply func(current Row) (Row, error)) (found bool, err error)
	Insert(ctx context.Context, table string, fields Row) error
}

type tableRepository struct {
	base
}

func (r *tableRepository) Rows(ctx context.Context, table string, columns []string, orderBy string) ([]Row, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []map[string]interface{}
	if err := db.Table(table).Select(columns).Order(orderBy).Find(&rows).Error; err != nil {
		return nil, translate(err, "table.rows")
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalizeRow(row))
	}
	return out, nil
}

// normalizeRow turns driver byte slices (MySQL text and decimals) into strings
func normalizeRow(row map[string]interface{}) Row {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return Row(row)
}

// Update locks the row matching key and applies fields; found is false when no row matches
func (r *tableRepository) Update(ctx context.Context, table string, key Row, fields Row) (bool, error) {
	return r.Modify(ctx, table, key, nil, func(Row) (Row, error) { return fields, nil })
}

// Modify locks the row matching key, reads columns from it and writes the
// fields apply derives from them, all in one transaction. An error from apply
// aborts the write and is returned unchanged.
func (r *tableRepository) Modify(ctx context.Context, table string, key Row, columns []string, apply func(current Row) (Row, error)) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	selected := make([]string, 0, len(key)+len(columns))
	for k := range key {
		selected = append(selected, k)
	}
	selected = append(selected, columns...)

	found := false
	var applyErr error
	err := db.Transaction(func(tx *gorm.DB) error {
		var matches []map[string]interface{}
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Table(table).
			Select(selected).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(map[string]interface{}(key)).
			Limit(1).
			Find(&matches).Error; err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		found = true

		fields, err := apply(normalizeRow(matches[0]))
		if err != nil {
			applyErr = err
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Table(table).Where(map[string]interface{}(key)).Updates(map[string]interface{}(fields)).Error
	})
	if applyErr != nil {
		return found, applyErr
	}
	if err != nil {
		return false, translate(err, "table.update")
	}
	return found, nil
}

func (r *tableRepository) Insert(ctx context.Context, table string, fields Row) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return translate(db.Table(table).Create(map[string]interface{}(fields)).Error, "table.insert")
}
