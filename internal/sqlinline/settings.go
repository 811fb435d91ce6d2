package sqlinline

const QUpsertUserSettings = `--sql 3f9a41c7-8e52-4d1b-a6c4-90be2d7f115a
insert into user_settings (user_id, model, openai_api_key, openai_base_url, updated_at)
values ($1::text, $2::text, $3::text, $4::text, now())
on conflict (user_id) do update set
    model = excluded.model,
    openai_api_key = excluded.openai_api_key,
    openai_base_url = excluded.openai_base_url,
    updated_at = now();
`

const QSelectUserSettings = `--sql b2d06e83-14f7-4c29-9d58-c7aa35e0f941
select model, openai_api_key, openai_base_url
from user_settings
where user_id = $1::text;
`
