package mcpserver

// StatusContract describes the attendance model that LLM consumers should
// follow when reading or changing statuses.
const StatusContract = `# Rollcall Attendance Contract

Each student carries an ordered list of attendance records:

` + "```" + `yaml
- id: 7f9c1c1e-2d4b-4f7a-9a51-0d6b1b1b7e11
  name: Ana Gomez
  email: ana@example.com
  image: ana.png
  attendance:
    - date: 2025-01-09
      status: present
    - date: 2025-01-10
      status: late
` + "```" + `

## Rules

1. **Statuses** are exactly ` + "`" + `present` + "`" + `, ` + "`" + `late` + "`" + ` and ` + "`" + `absent` + "`" + ` (lowercase).
2. **Current status** is the status of the last record. A student with no
   records is ` + "`" + `absent` + "`" + `.
3. **Summary** counts every student once under its current status;
   ` + "`" + `total` + "`" + ` is the roster size.
4. **set_status** overwrites the status of the last record only. It never
   appends a record, and a student with no records is left unchanged.
5. **mark_attendance** writes the record for one date (` + "`" + `YYYY-MM-DD` + "`" + `,
   default today), replacing that date's record or appending a new one.
6. **checksum** is returned with every student. Pass it back as
   ` + "`" + `if_match` + "`" + ` to reject the change when someone else updated the student first.
7. **Search** matches a case-insensitive substring of the student name.
   An empty query returns every student in roster order.
`
