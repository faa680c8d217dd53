package testing

type DatabaseHelper struct {
	tc *TestCase
}

func NewDatabaseHelper(tc *TestCase) *DatabaseHelper {
	return &DatabaseHelper{tc: tc}
}

func (d *DatabaseHelper) AssertTableExists(table string) {
	d.tc.True(d.tc.GetDB().Migrator().HasTable(table), "Expected table %s to exist", table)
}

func (d *DatabaseHelper) AssertTableMissing(table string) {
	d.tc.False(d.tc.GetDB().Migrator().HasTable(table), "Expected table %s NOT to exist", table)
}

func (d *DatabaseHelper) AssertColumnExists(table, column string) {
	d.tc.True(d.tc.GetDB().Migrator().HasColumn(table, column), "Expected column %s.%s to exist", table, column)
}

func (d *DatabaseHelper) AssertDatabaseHas(table string, conditions map[string]any) {
	db := d.tc.GetDB()
	var count int64

	query := db.Table(table)
	for key, value := range conditions {
		query = query.Where(key+" = ?", value)
	}

	query.Count(&count)
	d.tc.True(count > 0, "Expected to find record in table %s with conditions %v", table, conditions)
}

func (d *DatabaseHelper) AssertDatabaseCount(table string, expectedCount int) {
	db := d.tc.GetDB()
	var count int64

	db.Table(table).Count(&count)
	d.tc.Equal(int64(expectedCount), count, "Expected %d records in table %s, got %d", expectedCount, table, count)
}

func (d *DatabaseHelper) Insert(table string, values map[string]any) error {
	return d.tc.GetDB().Table(table).Create(values).Error
}

type RevisionHelper struct {
	tc *TestCase
}

func NewRevisionHelper(tc *TestCase) *RevisionHelper {
	return &RevisionHelper{tc: tc}
}

func (r *RevisionHelper) AssertRevisionCount(expected int) {
	files := r.tc.Revisions()
	r.tc.Len(files, expected, "Expected %d revisions, got %d", expected, len(files))
}

func (r *RevisionHelper) AssertLatestRevisionContains(substring string) {
	r.tc.Contains(r.tc.RevisionContents(), substring)
}

func (r *RevisionHelper) AssertOutputContains(substring string) {
	r.tc.Contains(r.tc.Output.String(), substring)
}
