package sqlinline

const QInsertSupport = `--sql 6464a55a-bde0-4aa2-89c1-e467676a4d2b
insert into supports (id, project_id, user_id, supported_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, now())
on conflict (project_id, user_id) do nothing;
`
