package sqlinline

const QInsertUser = `--sql 32cacbbc-679f-49e5-86c9-162ac488eddd
insert into users (id, username, email, password_hash, first_name, last_name, is_admin, created_at, updated_at)
values (gen_random_uuid(), $1::text, lower($2::text), $3::text, $4::text, $5::text, false, now(), now())
returning id, created_at, updated_at;
`

const QSelectUserByID = `--sql 81b017f5-35fa-4663-b804-96d1b724dddf
select id, username, email, password_hash, first_name, last_name, is_admin, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByUsername = `--sql 27f60eed-de62-41c1-9f9d-a5b80b9d9bb9
select id, username, email, password_hash, first_name, last_name, is_admin, created_at, updated_at
from users
where lower(username) = lower($1::text)
limit 1;
`

const QUpdateUserAdmin = `--sql 84577a92-aed4-4f83-985f-d81e88d111bb
update users
set is_admin = $2::boolean,
    updated_at = now()
where lower(username) = lower($1::text) or lower(email) = lower($1::text)
returning id, username, email, is_admin;
`
